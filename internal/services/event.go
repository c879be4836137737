package services

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planora-ticketing/internal/models"
)

const eventDateLayout = "2006-01-02T15:04"

// CoverUpload is an optional cover image posted with an event form.
type CoverUpload struct {
	Filename string
	Reader   io.Reader
}

// EventService handles event-related business logic
type EventService struct {
	events  EventStore
	images  *ImageService
	storage StorageService
	logger  *slog.Logger
	now     func() time.Time
}

// NewEventService creates a new event service
func NewEventService(events EventStore, images *ImageService, storage StorageService, logger *slog.Logger) *EventService {
	return &EventService{
		events:  events,
		images:  images,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *EventService) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

// ListPublished returns the public catalogue.
func (s *EventService) ListPublished(ctx context.Context) ([]*models.Event, error) {
	return s.events.ListPublished(ctx)
}

// ListForAdmin returns every event with its organizer id exposed.
func (s *EventService) ListForAdmin(ctx context.Context) ([]*models.AdminEvent, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.AdminEvent, 0, len(events))
	for _, e := range events {
		out = append(out, &models.AdminEvent{Event: e, OrganizerID: e.OrganizerID})
	}
	return out, nil
}

// ListByOrganizer returns the events owned by organizerID.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

// Owned returns the event if organizerID owns it. Unknown events and events
// owned by someone else are indistinguishable to the caller.
func (s *EventService) Owned(ctx context.Context, organizerID, eventID string) (*models.Event, error) {
	if eventID == "" {
		return nil, &models.ValidationError{Fields: map[string]string{"eventId": "is required"}}
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return nil, models.ErrForbidden
		}
		return nil, err
	}
	if organizerID == "" || event.OrganizerID == "" ||
		subtle.ConstantTimeCompare([]byte(event.OrganizerID), []byte(organizerID)) != 1 {
		return nil, models.ErrForbidden
	}
	return event, nil
}

// Create publishes a new event owned by organizerID.
func (s *EventService) Create(ctx context.Context, organizerID string, form *models.EventForm, cover *CoverUpload) (*models.Event, error) {
	if err := models.Validate(form); err != nil {
		return nil, err
	}

	missing := map[string]string{}
	if strings.TrimSpace(form.Title) == "" {
		missing["Title"] = "is required"
	}
	if strings.TrimSpace(form.Description) == "" {
		missing["Description"] = "is required"
	}
	if form.PriceINR == "" {
		missing["PriceINR"] = "is required"
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{Fields: missing}
	}

	patch, err := parseEventForm(form)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		Title:       *patch.Title,
		Description: *patch.Description,
		Date:        patch.Date,
		PriceINR:    *patch.PriceINR,
		OrganizerID: organizerID,
		IsPublished: true,
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.IsFeatured != nil {
		event.IsFeatured = *patch.IsFeatured
	}
	if patch.IsPublished != nil {
		event.IsPublished = *patch.IsPublished
	}

	if cover != nil {
		url, err := s.UploadCover(ctx, cover)
		if err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				return nil, err
			}
			s.logger.WarnContext(ctx, "creating event without cover", "error", err)
		} else {
			event.ImageURL = url
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "title", event.Title)
	return event, nil
}

// Update applies the non-empty fields of form to an event organizerID owns.
func (s *EventService) Update(ctx context.Context, organizerID string, form *models.EventForm, cover *CoverUpload) (*models.Event, error) {
	if err := models.Validate(form); err != nil {
		return nil, err
	}
	if _, err := s.Owned(ctx, organizerID, form.ID); err != nil {
		return nil, err
	}

	patch, err := parseEventForm(form)
	if err != nil {
		return nil, err
	}
	if cover != nil {
		url, err := s.UploadCover(ctx, cover)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &url
	}
	if patch.IsEmpty() {
		return nil, &models.ValidationError{Fields: map[string]string{"form": "no fields to update"}}
	}

	event, err := s.events.Update(ctx, form.ID, patch)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event updated", "event_id", event.ID)
	return event, nil
}

// AssignOrganizer hands an event to another organizer.
func (s *EventService) AssignOrganizer(ctx context.Context, req *models.AssignOrganizerRequest) error {
	req.OrganizerID = strings.TrimSpace(req.OrganizerID)
	if err := models.Validate(req); err != nil {
		return err
	}
	if err := s.events.SetOrganizer(ctx, req.EventID, req.OrganizerID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "event organizer reassigned", "event_id", req.EventID)
	return nil
}

// UploadCover normalises an image and stores it under event-covers/.
func (s *EventService) UploadCover(ctx context.Context, cover *CoverUpload) (string, error) {
	data, err := s.images.ProcessCover(cover.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	key := CoverKey(cover.Filename, s.now())
	url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "image/jpeg", int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}
	return url, nil
}

// parseEventForm converts the set fields of a form into a patch.
func parseEventForm(form *models.EventForm) (models.EventPatch, error) {
	var patch models.EventPatch

	if v := strings.TrimSpace(form.Title); v != "" {
		patch.Title = &v
	}
	if v := strings.TrimSpace(form.Description); v != "" {
		patch.Description = &v
	}
	if v := strings.TrimSpace(form.Location); v != "" {
		patch.Location = &v
	}
	if form.Date != "" {
		date, err := time.Parse(eventDateLayout, form.Date)
		if err != nil {
			return patch, &models.ValidationError{Fields: map[string]string{"Date": "is invalid"}}
		}
		patch.Date = &date
	}
	if form.PriceINR != "" {
		price, err := decimal.NewFromString(form.PriceINR)
		if err != nil || price.IsNegative() {
			return patch, &models.ValidationError{Fields: map[string]string{"PriceINR": "is invalid"}}
		}
		patch.PriceINR = &price
	}
	if form.IsPublished != "" {
		v, _ := strconv.ParseBool(form.IsPublished)
		patch.IsPublished = &v
	}
	if form.IsFeatured != "" {
		v, _ := strconv.ParseBool(form.IsFeatured)
		patch.IsFeatured = &v
	}
	return patch, nil
}
