package models

import "github.com/shopspring/decimal"

// TicketCounts are the per-status totals for a set of tickets.
type TicketCounts struct {
	Total   int `json:"total"`
	Used    int `json:"used"`
	Pending int `json:"pending"`
	Issued  int `json:"issued"`
	Failed  int `json:"failed"`
}

// CollegeCount is one row of the top colleges breakdown.
type CollegeCount struct {
	College string `json:"name"`
	Count   int    `json:"count"`
}

// DailyCount is the number of tickets created on a day.
type DailyCount struct {
	Day   string `json:"day"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

// EventStats is the analytics summary for an event, or for all events.
type EventStats struct {
	TicketCounts

	EventID       string          `json:"eventId,omitempty"`
	Valid         int             `json:"valid"`
	Absentees     int             `json:"absentees"`
	CheckInRate   float64         `json:"checkInRate"`
	IssueRate     float64         `json:"issueRate"`
	Revenue       decimal.Decimal `json:"revenue"`
	TopColleges   []CollegeCount  `json:"topColleges"`
	DailyCounts   []DailyCount    `json:"dailyCounts"`
	RecentTickets []*Ticket       `json:"recentTickets,omitempty"`
}
