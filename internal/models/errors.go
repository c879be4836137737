package models

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors used throughout the application
var (
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrInvalidSignature    = errors.New("invalid_signature")
	ErrPaymentNotCaptured  = errors.New("payment_not_captured")
	ErrTicketAlreadyUsed   = errors.New("ticket already used")
	ErrTicketNotRedeemable = errors.New("ticket not redeemable")
	ErrInvalidOTP          = errors.New("invalid_otp")
	ErrOTPExpired          = errors.New("otp_expired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicatePayment    = errors.New("payment already has a ticket")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
