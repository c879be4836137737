package services

import (
	"context"
	"time"

	"planora-ticketing/internal/models"
)

// TicketStore is the ticket persistence used by TicketService.
type TicketStore interface {
	FindByPaymentRef(ctx context.Context, paymentID string) (*models.Ticket, error)
	InsertPending(ctx context.Context, t *models.Ticket) error
	AttachArtifact(ctx context.Context, id, qr string) error
	MarkIssued(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	MarkRedeemed(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]*models.Ticket, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error)
	Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error)
	ToggleUsed(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// EventStore is the event persistence used by EventService and TicketService.
type EventStore interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListPublished(ctx context.Context) ([]*models.Event, error)
	ListAll(ctx context.Context) ([]*models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error)
	SetOrganizer(ctx context.Context, id, organizerID string) error
}

// StatsStore aggregates ticket rows for analytics.
type StatsStore interface {
	Counts(ctx context.Context, eventID string) (models.TicketCounts, error)
	TopColleges(ctx context.Context, eventID string) ([]models.CollegeCount, error)
	DailyCounts(ctx context.Context, eventID string) ([]models.DailyCount, error)
}

// PaymentGateway confirms that a signed callback matches a real payment.
type PaymentGateway interface {
	ConfirmCapture(ctx context.Context, orderID, paymentID string) error
}

// ArtworkSource fetches the event image printed on tickets.
type ArtworkSource interface {
	FetchArtwork(ctx context.Context, url string) ([]byte, error)
}
