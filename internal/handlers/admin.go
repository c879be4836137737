package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"planora-ticketing/internal/models"
)

// AdminHandler backs the admin dashboard. Every route except the session
// endpoints sits behind the admin cookie.
type AdminHandler struct {
	sessions  AdminSessions
	tickets   TicketServiceInterface
	events    EventServiceInterface
	analytics AnalyticsServiceInterface
	logger    *slog.Logger
}

func NewAdminHandler(sessions AdminSessions, tickets TicketServiceInterface, events EventServiceInterface, analytics AnalyticsServiceInterface, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		sessions:  sessions,
		tickets:   tickets,
		events:    events,
		analytics: analytics,
		logger:    logger,
	}
}

// SessionStatus is the answer of GET /api/admin/session
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// SessionStatus handles GET /api/admin/session
func (h *AdminHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	ok, expiresAt := h.sessions.Status(r)
	status := SessionStatus{Authenticated: ok}
	if ok {
		status.ExpiresAt = &expiresAt
	}
	writeJSON(w, http.StatusOK, status)
}

// Login handles POST /api/admin/session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "missing_secret")
		return
	}
	req.Secret = strings.TrimSpace(req.Secret)
	if req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing_secret")
		return
	}

	expiresAt, err := h.sessions.Login(w, r, req.Secret)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid_secret")
			return
		}
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "expiresAt": expiresAt})
}

// Logout handles DELETE /api/admin/session
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SearchTickets handles GET /api/admin/tickets?q=&eventId=&limit=
func (h *AdminHandler) SearchTickets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	tickets, err := h.tickets.Search(r.Context(), models.TicketSearch{
		Query:   strings.TrimSpace(query.Get("q")),
		EventID: strings.TrimSpace(query.Get("eventId")),
		Limit:   limit,
	})
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// TicketAction handles POST /api/admin/tickets: toggle, delete or resend
func (h *AdminHandler) TicketAction(w http.ResponseWriter, r *http.Request) {
	var req models.AdminTicketAction
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	req.TicketID = strings.TrimSpace(req.TicketID)
	if req.TicketID == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "toggle":
		used, err := h.tickets.ToggleUsed(ctx, req.TicketID)
		if err != nil {
			respondError(w, r, h.logger, err, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "used": used})
	case "delete":
		if err := h.tickets.Delete(ctx, req.TicketID); err != nil {
			respondError(w, r, h.logger, err, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case "resend":
		if err := h.tickets.Resend(ctx, req.TicketID); err != nil {
			respondError(w, r, h.logger, err, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Ticket email sent"})
	default:
		writeError(w, http.StatusBadRequest, "invalid_action")
	}
}

// Stats handles GET /api/admin/stats?eventId=
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))

	stats, err := h.analytics.EventStats(r.Context(), eventID, true)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListEvents handles GET /api/admin/events
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListForAdmin(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if events == nil {
		events = []*models.AdminEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// AssignOrganizer handles PUT /api/admin/events
func (h *AdminHandler) AssignOrganizer(w http.ResponseWriter, r *http.Request) {
	var req models.AssignOrganizerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	if err := h.events.AssignOrganizer(r.Context(), &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
