package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"planora-ticketing/internal/models"

	"github.com/go-chi/chi/v5"
)

// TicketHandler serves the door scanner and public ticket links
type TicketHandler struct {
	tickets TicketServiceInterface
	logger  *slog.Logger
}

func NewTicketHandler(tickets TicketServiceInterface, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: logger}
}

// VerifyTicket handles POST /api/verify-ticket. Rejections are 200 with
// valid=false so the scanner can show the reason.
func (h *TicketHandler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	result, err := h.tickets.Verify(r.Context(), req.Data)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RedeemTicket handles PUT /api/verify-ticket
func (h *TicketHandler) RedeemTicket(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	req.TicketID = strings.TrimSpace(req.TicketID)
	if err := models.Validate(&req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	if err := h.tickets.Redeem(r.Context(), req.TicketID); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetTicket handles GET /api/ticket/{id}
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	view, err := h.tickets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TicketPDF handles GET /api/ticket-pdf?id=
func (h *TicketHandler) TicketPDF(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}

	pdf, err := h.tickets.RenderPDF(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err, "pdf_failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
