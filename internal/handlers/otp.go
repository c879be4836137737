package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"planora-ticketing/internal/models"
)

const otpTokenHeader = "X-OTP-Token"

// OTPHandler lets attendees find their tickets after proving they own the email
type OTPHandler struct {
	otp     OTPServiceInterface
	tickets TicketServiceInterface
	logger  *slog.Logger
}

func NewOTPHandler(otp OTPServiceInterface, tickets TicketServiceInterface, logger *slog.Logger) *OTPHandler {
	return &OTPHandler{otp: otp, tickets: tickets, logger: logger}
}

// RequestCode handles POST /api/otp/request
func (h *OTPHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	if err := h.otp.Request(r.Context(), &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// OTPVerifyResponse carries the lookup token
type OTPVerifyResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// VerifyCode handles POST /api/otp/verify
func (h *OTPHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req models.OTPVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	token, err := h.otp.Verify(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, OTPVerifyResponse{OK: true, Token: token})
}

// TicketsByEmail handles POST /api/tickets-by-email. The token must have
// been issued for the same email.
func (h *OTPHandler) TicketsByEmail(w http.ResponseWriter, r *http.Request) {
	var req models.TicketLookupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}
	req.Email = models.NormalizeEmail(req.Email)

	token := strings.TrimSpace(r.Header.Get(otpTokenHeader))
	if token == "" || h.otp.Authorize(token, req.Email) != nil {
		writeError(w, http.StatusUnauthorized, "otp_required")
		return
	}

	if err := models.Validate(&req); err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	tickets, err := h.tickets.LookupByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, r, h.logger, err, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}
