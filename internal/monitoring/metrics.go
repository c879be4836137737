package monitoring

import (
	"context"
	"database/sql"
	"log/slog"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Ticket issuance attempts by outcome",
		},
		[]string{"outcome"},
	)

	ticketScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Door scans by result",
		},
		[]string{"result"},
	)

	ticketRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_redemptions_total",
			Help: "Check-in commits by result",
		},
		[]string{"result"},
	)

	ticketEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_emails_total",
			Help: "Outgoing emails by kind and status",
		},
		[]string{"kind", "status"},
	)

	otpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_requests_total",
			Help: "OTP requests and verifications by result",
		},
		[]string{"result"},
	)

	issuanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_issuance_duration_seconds",
			Help:    "Time spent issuing a ticket, from signature check to response",
			Buckets: prometheus.DefBuckets,
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	dependencyUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_up",
			Help: "1 when the last health probe of a dependency succeeded",
		},
		[]string{"dependency"},
	)

	dbOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Open connections in the database pool",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of goroutines",
		},
	)
)

// TrackIssuance records the outcome and latency of one issuance attempt.
func TrackIssuance(outcome string, duration time.Duration) {
	ticketsIssued.WithLabelValues(outcome).Inc()
	issuanceDuration.Observe(duration.Seconds())
}

func TrackScan(result string) {
	ticketScans.WithLabelValues(result).Inc()
}

func TrackRedemption(result string) {
	ticketRedemptions.WithLabelValues(result).Inc()
}

func TrackEmail(kind, status string) {
	ticketEmails.WithLabelValues(kind, status).Inc()
}

func TrackOTP(result string) {
	otpRequests.WithLabelValues(result).Inc()
}

// TrackHTTPRequest records one served request.
func TrackHTTPRequest(route, method, status string, duration time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Monitor periodically probes the database and Redis and exports their health.
type Monitor struct {
	db       *sql.DB
	redis    redis.Cmdable
	interval time.Duration
	logger   *slog.Logger
}

func NewMonitor(db *sql.DB, redisClient redis.Cmdable, logger *slog.Logger) *Monitor {
	return &Monitor{
		db:       db,
		redis:    redisClient,
		interval: 30 * time.Second,
		logger:   logger,
	}
}

// Run collects metrics until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) collect(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if m.db != nil {
		m.setUp("postgres", m.db.PingContext(probeCtx))
		dbOpenConnections.Set(float64(m.db.Stats().OpenConnections))
	}
	if m.redis != nil {
		m.setUp("redis", m.redis.Ping(probeCtx).Err())
	}
	goroutineCount.Set(float64(runtime.NumGoroutine()))
}

func (m *Monitor) setUp(dependency string, err error) {
	if err != nil {
		m.logger.Warn("dependency probe failed", "dependency", dependency, "error", err)
		dependencyUp.WithLabelValues(dependency).Set(0)
		return
	}
	dependencyUp.WithLabelValues(dependency).Set(1)
}
