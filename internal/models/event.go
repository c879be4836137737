package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the venue, time and price metadata tickets are issued against.
// OrganizerID doubles as the bearer secret for organizer endpoints and is
// never serialized to public clients.
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date,omitempty"`
	Location    string          `json:"location"`
	PriceINR    decimal.Decimal `json:"price_inr"`
	ImageURL    string          `json:"image_url,omitempty"`
	OrganizerID string          `json:"-"`
	IsPublished bool            `json:"is_published"`
	IsFeatured  bool            `json:"is_featured"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AdminEvent exposes the organizer id, for the admin surface only.
type AdminEvent struct {
	*Event
	OrganizerID string `json:"organizer_id"`
}

// DateLabel formats the event date for documents and emails.
func (e *Event) DateLabel() string {
	if e == nil || e.Date == nil {
		return "Date TBA"
	}
	return e.Date.Format("Mon, 02 Jan 2006 15:04")
}

// EventPatch holds the optional fields of an event update.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	PriceINR    *decimal.Decimal
	ImageURL    *string
	IsPublished *bool
	IsFeatured  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Location == nil &&
		p.PriceINR == nil && p.ImageURL == nil && p.IsPublished == nil && p.IsFeatured == nil
}
