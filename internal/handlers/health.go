package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the database and Redis answer
type HealthHandler struct {
	db    Pinger
	redis redis.Cmdable
}

func NewHealthHandler(db Pinger, redisClient redis.Cmdable) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		checks["postgres"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}
