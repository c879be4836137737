package handlers

import (
	"context"
	"net/http"
	"time"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/services"
)

// TicketServiceInterface is the ticket surface used by the HTTP layer
type TicketServiceInterface interface {
	Issue(ctx context.Context, req *models.IssueRequest) (*models.IssueResult, error)
	Verify(ctx context.Context, data string) (*models.VerificationResult, error)
	Redeem(ctx context.Context, ticketID string) error
	Get(ctx context.Context, ticketID string) (*models.TicketView, error)
	RenderPDF(ctx context.Context, ticketID string) ([]byte, error)
	LookupByEmail(ctx context.Context, email string) ([]*models.TicketView, error)
	Roster(ctx context.Context, eventID string) ([]*models.Ticket, error)
	Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error)
	ToggleUsed(ctx context.Context, ticketID string) (bool, error)
	Delete(ctx context.Context, ticketID string) error
	Resend(ctx context.Context, ticketID string) error
}

// OrderServiceInterface creates Razorpay checkout orders
type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, req services.OrderRequest) (*services.Order, error)
	KeyID() string
}

// OTPServiceInterface gates ticket lookup by email
type OTPServiceInterface interface {
	Request(ctx context.Context, req *models.OTPRequest) error
	Verify(ctx context.Context, req *models.OTPVerifyRequest) (string, error)
	Authorize(token, email string) error
}

// EventServiceInterface manages the event catalogue
type EventServiceInterface interface {
	GetByID(ctx context.Context, eventID string) (*models.Event, error)
	ListPublished(ctx context.Context) ([]*models.Event, error)
	ListForAdmin(ctx context.Context) ([]*models.AdminEvent, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error)
	Owned(ctx context.Context, organizerID, eventID string) (*models.Event, error)
	Create(ctx context.Context, organizerID string, form *models.EventForm, cover *services.CoverUpload) (*models.Event, error)
	Update(ctx context.Context, organizerID string, form *models.EventForm, cover *services.CoverUpload) (*models.Event, error)
	AssignOrganizer(ctx context.Context, req *models.AssignOrganizerRequest) error
}

// AnalyticsServiceInterface computes per-event statistics
type AnalyticsServiceInterface interface {
	EventStats(ctx context.Context, eventID string, withRecent bool) (*models.EventStats, error)
}

// TemplateServiceInterface stores per-event ticket branding
type TemplateServiceInterface interface {
	Get(ctx context.Context, eventID string) models.TicketTemplate
	Raw(ctx context.Context, eventID string) (*models.TicketTemplate, error)
	Put(ctx context.Context, eventID string, raw []byte) (*models.TicketTemplate, error)
}

// AdminSessions issues and checks the admin cookie
type AdminSessions interface {
	Login(w http.ResponseWriter, r *http.Request, secret string) (time.Time, error)
	Logout(w http.ResponseWriter, r *http.Request) error
	Status(r *http.Request) (bool, time.Time)
}
