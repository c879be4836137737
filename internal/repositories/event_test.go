package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planora-ticketing/internal/models"
)

var eventRowColumns = []string{
	"id", "title", "description", "date", "location", "price_inr", "image_url",
	"organizer_id", "is_published", "is_featured", "created_at",
}

func TestEventRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)
	created := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = $1")).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow("ev1", "AKCOMSOC 2025", "5G deep dive", nil, nil, "1000.00", nil, "org-secret", true, true, created))

	event, err := repo.GetByID(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, "AKCOMSOC 2025", event.Title)
	assert.True(t, event.PriceINR.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "org-secret", event.OrganizerID)
	assert.Nil(t, event.Date)
	assert.Empty(t, event.Location)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventRowColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)
	title := "Renamed"
	published := false

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE events SET title = $2, is_published = $3 WHERE id = $1 RETURNING")).
		WithArgs("ev1", "Renamed", false).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow("ev1", "Renamed", "", nil, "Hall A", "0", nil, "org", false, false, time.Now()))

	event, err := repo.Update(context.Background(), "ev1", models.EventPatch{Title: &title, IsPublished: &published})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", event.Title)
	assert.Equal(t, "Hall A", event.Location)
	assert.False(t, event.IsPublished)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_SetOrganizer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET organizer_id = $2 WHERE id = $1")).
		WithArgs("ev1", "new-secret").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET organizer_id = $2 WHERE id = $1")).
		WithArgs("missing", "new-secret").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetOrganizer(context.Background(), "ev1", "new-secret"))
	assert.ErrorIs(t, repo.SetOrganizer(context.Background(), "missing", "new-secret"), models.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_Counts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalyticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE event_id = $1")).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "used", "pending", "issued", "failed"}).AddRow(10, 3, 1, 8, 1))

	counts, err := repo.Counts(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketCounts{Total: 10, Used: 3, Pending: 1, Issued: 8, Failed: 1}, counts)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY TRIM(college)")).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "n"}).AddRow("MIT", 4).AddRow("CET", 2))

	colleges, err := repo.TopColleges(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, []models.CollegeCount{{College: "MIT", Count: 4}, {College: "CET", Count: 2}}, colleges)

	mock.ExpectQuery(regexp.QuoteMeta("DATE_TRUNC('day'")).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).AddRow(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 5))

	days, err := repo.DailyCounts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{{Day: "2025-03-01", Count: 5}}, days)

	assert.NoError(t, mock.ExpectationsWereMet())
}
