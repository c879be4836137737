package models

// IssueMetadata is the attendee detail posted with a payment callback.
type IssueMetadata struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	College string `json:"college" validate:"max=255"`
	IEEE    string `json:"ieee" validate:"max=64"`
	EventID string `json:"eventId" validate:"max=128"`
	Amount  string `json:"amount" validate:"omitempty,numeric"`
}

// IssueRequest is the Razorpay checkout callback.
type IssueRequest struct {
	PaymentID string        `json:"razorpay_payment_id" validate:"required"`
	OrderID   string        `json:"razorpay_order_id" validate:"required"`
	Signature string        `json:"razorpay_signature" validate:"required,hexadecimal"`
	Metadata  IssueMetadata `json:"metadata"`
}

// CreateOrderRequest starts a Razorpay checkout.
type CreateOrderRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Amount  int64  `json:"amount" validate:"min=0"` // paise
	EventID string `json:"eventId" validate:"max=128"`
}

// VerifyTicketRequest is a door scan.
type VerifyTicketRequest struct {
	Data string `json:"data" validate:"required"`
}

// RedeemRequest commits a check-in.
type RedeemRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// TicketLookupRequest lists the tickets registered to an email.
type TicketLookupRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// AdminLoginRequest carries the shared admin secret.
type AdminLoginRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// AdminTicketAction is a roster mutation from the admin dashboard.
type AdminTicketAction struct {
	Action   string `json:"action" validate:"required,oneof=toggle delete resend"`
	TicketID string `json:"id" validate:"required"`
}

// AssignOrganizerRequest moves an event to another organizer secret.
type AssignOrganizerRequest struct {
	EventID     string `json:"id" validate:"required"`
	OrganizerID string `json:"organizer_id" validate:"required,min=8,max=128"`
}

// EventForm is the multipart event create/update form.
type EventForm struct {
	ID          string `validate:"max=128"`
	Title       string `validate:"max=255"`
	Description string `validate:"max=5000"`
	Date        string `validate:"omitempty,datetime=2006-01-02T15:04"`
	Location    string `validate:"max=255"`
	PriceINR    string `validate:"omitempty,numeric"`
	IsPublished string `validate:"omitempty,oneof=true false"`
	IsFeatured  string `validate:"omitempty,oneof=true false"`
}
