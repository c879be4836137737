package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"planora-ticketing/internal/middleware"
	"planora-ticketing/internal/models"
	"planora-ticketing/internal/services"
)

const maxEventForm = 8 << 20

// EventHandler serves the public catalogue and event creation
type EventHandler struct {
	events EventServiceInterface
	logger *slog.Logger
}

func NewEventHandler(events EventServiceInterface, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListPublished(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /api/events (multipart, organizer only)
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := middleware.OrganizerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	form, cover, err := parseEventMultipart(w, r)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if cover != nil {
		defer cover.close()
	}

	event, err := h.events.Create(r.Context(), organizerID, form, cover.upload())
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

type coverFile struct {
	file     multipart.File
	filename string
}

func (c *coverFile) upload() *services.CoverUpload {
	if c == nil {
		return nil
	}
	return &services.CoverUpload{Filename: c.filename, Reader: c.file}
}

func (c *coverFile) close() {
	c.file.Close()
}

// parseEventMultipart reads the event form fields and the optional
// coverImage file.
func parseEventMultipart(w http.ResponseWriter, r *http.Request) (*models.EventForm, *coverFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventForm)
	if err := r.ParseMultipartForm(maxEventForm); err != nil {
		return nil, nil, &models.ValidationError{Fields: map[string]string{"form": "must be multipart/form-data"}}
	}

	field := func(names ...string) string {
		for _, name := range names {
			if v := strings.TrimSpace(r.FormValue(name)); v != "" {
				return v
			}
		}
		return ""
	}

	form := &models.EventForm{
		ID:          field("id", "eventId"),
		Title:       field("title"),
		Description: field("description"),
		Date:        field("date"),
		Location:    field("location"),
		PriceINR:    field("price", "price_inr"),
		IsPublished: field("is_published"),
		IsFeatured:  field("is_featured"),
	}

	file, header, err := r.FormFile("coverImage")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return form, nil, nil
		}
		return nil, nil, &models.ValidationError{Fields: map[string]string{"coverImage": "could not be read"}}
	}
	return form, &coverFile{file: file, filename: header.Filename}, nil
}
