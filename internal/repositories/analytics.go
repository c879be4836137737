package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"planora-ticketing/internal/models"
)

const topCollegesLimit = 5

// AnalyticsRepository aggregates ticket counts for the admin and organizer dashboards.
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// eventFilter scopes a query to one event, or to every ticket when eventID is empty.
func eventFilter(eventID string) (string, []any) {
	if eventID == "" {
		return "", nil
	}
	return " WHERE event_id = $1", []any{eventID}
}

// Counts returns the per-status ticket totals.
func (r *AnalyticsRepository) Counts(ctx context.Context, eventID string) (models.TicketCounts, error) {
	where, args := eventFilter(eventID)
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE used),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status IN ('issued', 'redeemed')),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM tickets` + where

	var c models.TicketCounts
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.Total, &c.Used, &c.Pending, &c.Issued, &c.Failed)
	if err != nil {
		return c, fmt.Errorf("failed to count tickets: %w", err)
	}
	return c, nil
}

// TopColleges returns the colleges with the most registrations.
func (r *AnalyticsRepository) TopColleges(ctx context.Context, eventID string) ([]models.CollegeCount, error) {
	where, args := eventFilter(eventID)
	if where == "" {
		where = " WHERE"
	} else {
		where += " AND"
	}
	query := `
		SELECT TRIM(college) AS name, COUNT(*) AS n
		FROM tickets` + where + ` TRIM(college) <> ''
		GROUP BY TRIM(college)
		ORDER BY n DESC, name ASC
		LIMIT ` + fmt.Sprint(topCollegesLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count colleges: %w", err)
	}
	defer rows.Close()

	colleges := make([]models.CollegeCount, 0, topCollegesLimit)
	for rows.Next() {
		var c models.CollegeCount
		if err := rows.Scan(&c.College, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan college count: %w", err)
		}
		colleges = append(colleges, c)
	}
	return colleges, rows.Err()
}

// DailyCounts returns registrations per UTC day, oldest first.
func (r *AnalyticsRepository) DailyCounts(ctx context.Context, eventID string) ([]models.DailyCount, error) {
	where, args := eventFilter(eventID)
	query := `
		SELECT DATE_TRUNC('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM tickets` + where + `
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily tickets: %w", err)
	}
	defer rows.Close()

	days := make([]models.DailyCount, 0)
	for rows.Next() {
		var (
			day   time.Time
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		days = append(days, models.DailyCount{Day: day.Format("2006-01-02"), Count: count})
	}
	return days, rows.Err()
}
