package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"planora-ticketing/internal/models"
)

// TemplateService stores per-event ticket branding as JSON objects.
type TemplateService struct {
	storage StorageService
	logger  *slog.Logger
}

func NewTemplateService(storage StorageService, logger *slog.Logger) *TemplateService {
	return &TemplateService{storage: storage, logger: logger}
}

// Get returns the event's branding with defaults filled in. A missing or
// unreadable template yields the defaults.
func (s *TemplateService) Get(ctx context.Context, eventID string) models.TicketTemplate {
	if eventID == "" {
		return models.DefaultTemplate()
	}

	data, err := s.storage.Download(ctx, models.TemplateKey(eventID))
	if err != nil {
		if !errors.Is(err, ErrObjectNotFound) {
			s.logger.WarnContext(ctx, "failed to load ticket template", "event_id", eventID, "error", err)
		}
		return models.DefaultTemplate()
	}

	var tpl models.TicketTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		s.logger.WarnContext(ctx, "ignoring malformed ticket template", "event_id", eventID, "error", err)
		return models.DefaultTemplate()
	}
	return tpl.WithDefaults()
}

// Raw returns the stored template as uploaded, or ErrObjectNotFound.
func (s *TemplateService) Raw(ctx context.Context, eventID string) (*models.TicketTemplate, error) {
	data, err := s.storage.Download(ctx, models.TemplateKey(eventID))
	if err != nil {
		return nil, err
	}
	var tpl models.TicketTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return &tpl, nil
}

// Put validates and stores a template document for eventID.
func (s *TemplateService) Put(ctx context.Context, eventID string, raw []byte) (*models.TicketTemplate, error) {
	var tpl models.TicketTemplate
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return nil, fmt.Errorf("%w: template is not valid JSON", models.ErrInvalidInput)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(tpl)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	key := models.TemplateKey(eventID)
	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "application/json", int64(len(data))); err != nil {
		return nil, fmt.Errorf("failed to store template: %w", err)
	}

	s.logger.InfoContext(ctx, "ticket template updated", "event_id", eventID)
	return &tpl, nil
}
