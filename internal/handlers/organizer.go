package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"planora-ticketing/internal/middleware"
	"planora-ticketing/internal/models"
)

const maxTemplateSize = 64 << 10

// OrganizerHandler is the organizer portal. Every action is scoped to events
// the caller owns.
type OrganizerHandler struct {
	events    EventServiceInterface
	tickets   TicketServiceInterface
	analytics AnalyticsServiceInterface
	templates TemplateServiceInterface
	logger    *slog.Logger
}

func NewOrganizerHandler(events EventServiceInterface, tickets TicketServiceInterface, analytics AnalyticsServiceInterface, templates TemplateServiceInterface, logger *slog.Logger) *OrganizerHandler {
	return &OrganizerHandler{
		events:    events,
		tickets:   tickets,
		analytics: analytics,
		templates: templates,
		logger:    logger,
	}
}

// owned resolves the organizer from the request context and checks that it
// owns eventID. It writes the error response itself.
func (h *OrganizerHandler) owned(w http.ResponseWriter, r *http.Request, eventID string) bool {
	organizerID, ok := middleware.OrganizerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if strings.TrimSpace(eventID) == "" {
		writeError(w, http.StatusBadRequest, "missing_event_id")
		return false
	}
	if _, err := h.events.Owned(r.Context(), organizerID, eventID); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return false
	}
	return true
}

// ListEvents handles GET /api/organizer/events
func (h *OrganizerHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := middleware.OrganizerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	events, err := h.events.ListByOrganizer(r.Context(), organizerID)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// UpdateEvent handles PUT /api/organizer/events (multipart)
func (h *OrganizerHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := middleware.OrganizerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	form, cover, err := parseEventMultipart(w, r)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if cover != nil {
		defer cover.close()
	}
	if form.ID == "" {
		writeError(w, http.StatusBadRequest, "missing_event_id")
		return
	}

	event, err := h.events.Update(r.Context(), organizerID, form, cover.upload())
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

// Tickets handles GET /api/organizer/tickets?eventId=
func (h *OrganizerHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	if !h.owned(w, r, eventID) {
		return
	}

	tickets, err := h.tickets.Roster(r.Context(), eventID)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

// Analytics handles GET /api/organizer/analytics?eventId=
func (h *OrganizerHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	if !h.owned(w, r, eventID) {
		return
	}

	stats, err := h.analytics.EventStats(r.Context(), eventID, false)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetTemplate handles GET /api/organizer/templates?eventId=
func (h *OrganizerHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("eventId"))
	if !h.owned(w, r, eventID) {
		return
	}

	tpl, err := h.templates.Raw(r.Context(), eventID)
	if err != nil {
		respondError(w, r, h.logger, err, "read_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": tpl})
}

// templateUpload is the JSON form of a template upload
type templateUpload struct {
	EventID  string          `json:"eventId"`
	Template json.RawMessage `json:"template"`
}

// PutTemplate handles POST /api/organizer/templates. It accepts multipart
// (eventId plus a template file or field) or a JSON body.
func (h *OrganizerHandler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	eventID, raw, err := readTemplateUpload(w, r)
	if err != nil {
		respondError(w, r, h.logger, err, "upload_failed")
		return
	}
	if !h.owned(w, r, eventID) {
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "missing_template")
		return
	}

	tpl, err := h.templates.Put(r.Context(), eventID, raw)
	if err != nil {
		respondError(w, r, h.logger, err, "upload_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "template": tpl})
}

func readTemplateUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body templateUpload
		if err := decodeJSON(w, r, &body); err != nil {
			return "", nil, err
		}
		return strings.TrimSpace(body.EventID), body.Template, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTemplateSize+4096)
	if err := r.ParseMultipartForm(maxTemplateSize); err != nil {
		return "", nil, &models.ValidationError{Fields: map[string]string{"template": "upload is too large or malformed"}}
	}
	eventID := strings.TrimSpace(r.FormValue("eventId"))

	file, _, err := r.FormFile("template")
	if err != nil {
		return eventID, []byte(r.FormValue("template")), nil
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxTemplateSize))
	if err != nil {
		return "", nil, err
	}
	return eventID, raw, nil
}
