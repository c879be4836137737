package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"planora-ticketing/internal/models"
)

const eventColumns = `id, title, description, date, location, price_inr, image_url,
	organizer_id, is_published, is_featured, created_at`

// EventRepository handles event data operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e           models.Event
		date        sql.NullTime
		location    sql.NullString
		imageURL    sql.NullString
		organizerID sql.NullString
	)

	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&date,
		&location,
		&e.PriceINR,
		&imageURL,
		&organizerID,
		&e.IsPublished,
		&e.IsFeatured,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if date.Valid {
		e.Date = &date.Time
	}
	e.Location = location.String
	e.ImageURL = imageURL.String
	e.OrganizerID = organizerID.String
	return &e, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// ListPublished returns published events, newest first.
func (r *EventRepository) ListPublished(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE is_published = TRUE
		ORDER BY is_featured DESC, created_at DESC`

	events, err := r.queryEvents(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published events: %w", err)
	}
	return events, nil
}

// ListAll returns every event for the admin dashboard.
func (r *EventRepository) ListAll(ctx context.Context) ([]*models.Event, error) {
	events, err := r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListByOrganizer returns the events owned by an organizer id.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC`

	events, err := r.queryEvents(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	return events, nil
}

// Create inserts a new event
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, date, location, price_inr, image_url,
			organizer_id, is_published, is_featured, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	e.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.Date,
		nullString(e.Location),
		e.PriceINR,
		nullString(e.ImageURL),
		nullString(e.OrganizerID),
		e.IsPublished,
		e.IsFeatured,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of patch and returns the updated event.
func (r *EventRepository) Update(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args = []any{id}
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.PriceINR != nil {
		add("price_inr", *patch.PriceINR)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.IsPublished != nil {
		add("is_published", *patch.IsPublished)
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}

	query := `UPDATE events SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return e, nil
}

// SetOrganizer reassigns an event to a different organizer secret.
func (r *EventRepository) SetOrganizer(ctx context.Context, id, organizerID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET organizer_id = $2 WHERE id = $1`, id, organizerID)
	if err != nil {
		return fmt.Errorf("failed to set organizer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrEventNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
