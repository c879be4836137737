package services

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"planora-ticketing/internal/models"
)

const recentTicketsLimit = 10

// AnalyticsService builds event dashboards from ticket aggregates.
type AnalyticsService struct {
	stats   StatsStore
	events  EventStore
	tickets TicketStore
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(stats StatsStore, events EventStore, tickets TicketStore) *AnalyticsService {
	return &AnalyticsService{stats: stats, events: events, tickets: tickets}
}

// EventStats summarises one event, or every event when eventID is empty.
// Revenue is only computed for a single event since prices differ.
func (s *AnalyticsService) EventStats(ctx context.Context, eventID string, withRecent bool) (*models.EventStats, error) {
	var (
		counts   models.TicketCounts
		colleges []models.CollegeCount
		daily    []models.DailyCount
		recent   []*models.Ticket
		price    decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.stats.Counts(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		colleges, err = s.stats.TopColleges(gctx, eventID)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.stats.DailyCounts(gctx, eventID)
		return err
	})
	if eventID != "" {
		g.Go(func() error {
			event, err := s.events.GetByID(gctx, eventID)
			if errors.Is(err, models.ErrEventNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			price = event.PriceINR
			return nil
		})
	}
	if withRecent {
		g.Go(func() (err error) {
			filter := eventID
			if filter == "" {
				filter = "ALL"
			}
			recent, err = s.tickets.Search(gctx, models.TicketSearch{EventID: filter, Limit: recentTicketsLimit})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Summarize(eventID, counts, price, colleges, daily, recent), nil
}

// Summarize derives the dashboard rates from raw counts.
func Summarize(eventID string, counts models.TicketCounts, price decimal.Decimal, colleges []models.CollegeCount, daily []models.DailyCount, recent []*models.Ticket) *models.EventStats {
	stats := &models.EventStats{
		TicketCounts:  counts,
		EventID:       eventID,
		Valid:         counts.Total - counts.Used,
		Absentees:     max(0, counts.Issued-counts.Used),
		Revenue:       price.Mul(decimal.NewFromInt(int64(counts.Issued))),
		TopColleges:   colleges,
		DailyCounts:   daily,
		RecentTickets: recent,
	}
	if counts.Issued > 0 {
		stats.CheckInRate = percent(counts.Used, counts.Issued)
	}
	if counts.Total > 0 {
		stats.IssueRate = percent(counts.Issued, counts.Total)
	}
	if stats.TopColleges == nil {
		stats.TopColleges = []models.CollegeCount{}
	}
	if stats.DailyCounts == nil {
		stats.DailyCounts = []models.DailyCount{}
	}
	return stats
}

// percent returns part/whole*100 rounded to one decimal.
func percent(part, whole int) float64 {
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
