package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketPending   TicketStatus = "pending"
	TicketIssued    TicketStatus = "issued"
	TicketFailed    TicketStatus = "failed"
	TicketRedeemed  TicketStatus = "redeemed"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is a single registration. QR holds the PNG data URL generated at
// issuance and is served as stored.
type Ticket struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	College           string              `json:"college"`
	IEEE              string              `json:"ieee"`
	EventID           string              `json:"event_id,omitempty"`
	PaymentID         string              `json:"payment_id"`
	RazorpayOrderID   string              `json:"razorpay_order_id,omitempty"`
	RazorpaySignature string              `json:"-"`
	AmountPaid        decimal.NullDecimal `json:"amount_paid"`
	Status            TicketStatus        `json:"status"`
	Used              bool                `json:"used"`
	UsedAt            *time.Time          `json:"used_at,omitempty"`
	CheckedInAt       *time.Time          `json:"checked_in_at,omitempty"`
	QR                string              `json:"qr,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// IsRedeemable reports whether the ticket may be admitted at the door.
func (t *Ticket) IsRedeemable() bool {
	return t.Status == TicketIssued && !t.Used
}

// DocumentKey is the object storage key of the rendered ticket PDF.
func (t *Ticket) DocumentKey() string {
	return DocumentKey(t.ID)
}

// ShortID is the abbreviated id printed on the document.
func (t *Ticket) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}

// DocumentKey returns tickets/<id>.pdf.
func DocumentKey(ticketID string) string {
	return "tickets/" + ticketID + ".pdf"
}

// IssueResult is returned by ticket issuance, both for fresh and repeated callbacks.
type IssueResult struct {
	TicketID  string `json:"ticketId"`
	TicketURL string `json:"ticketUrl"`
	PDFURL    string `json:"pdfUrl"`
	Message   string `json:"message"`
	Existing  bool   `json:"-"`
}

// VerificationResult is the door scan answer. Rejections carry a Reason.
type VerificationResult struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Verification rejection reasons shown to door staff.
const (
	ReasonInvalidQR      = "Invalid QR format"
	ReasonNotFound       = "Ticket not found"
	ReasonEmailMismatch  = "Email mismatch"
	reasonAlreadyUsedFmt = "Already used at %s"
	reasonStatusFmt      = "Ticket status: %s"
)

// TicketView is a ticket with a signed link to its document.
type TicketView struct {
	*Ticket
	PDFURL string `json:"pdfUrl"`
}

// TicketSearch filters the admin ticket listing.
type TicketSearch struct {
	Query   string
	EventID string
	Limit   int
}

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// Normalize clamps the limit into [1, MaxSearchLimit].
func (s *TicketSearch) Normalize() {
	if s.Limit <= 0 {
		s.Limit = DefaultSearchLimit
	}
	if s.Limit > MaxSearchLimit {
		s.Limit = MaxSearchLimit
	}
}
