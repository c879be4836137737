package models

import (
	"fmt"
	"time"
)

// Reject builds a rejected scan result.
func Reject(reason string) *VerificationResult {
	return &VerificationResult{Valid: false, Reason: reason}
}

// AlreadyUsed builds the rejection for a redeemed ticket.
func AlreadyUsed(usedAt *time.Time) *VerificationResult {
	ts := "unknown time"
	if usedAt != nil {
		ts = usedAt.UTC().Format(time.RFC3339)
	}
	return Reject(fmt.Sprintf(reasonAlreadyUsedFmt, ts))
}

// WrongStatus builds the rejection for a ticket that is not issued.
func WrongStatus(status TicketStatus) *VerificationResult {
	return Reject(fmt.Sprintf(reasonStatusFmt, status))
}

// Accept builds a successful scan result for t.
func Accept(t *Ticket) *VerificationResult {
	createdAt := t.CreatedAt
	return &VerificationResult{
		Valid:     true,
		ID:        t.ID,
		Name:      t.Name,
		Email:     t.Email,
		EventID:   t.EventID,
		CreatedAt: &createdAt,
	}
}
