package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/services"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every non-2xx JSON answer
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: code})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &models.ValidationError{Fields: map[string]string{"body": "is required"}}
		}
		return models.ErrInvalidInput
	}
	return nil
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and answered with fallback.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Fields: verr.Fields})
	case errors.Is(err, models.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "invalid_signature")
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, models.ErrPaymentNotCaptured):
		writeError(w, http.StatusPaymentRequired, "payment_not_captured")
	case errors.Is(err, models.ErrTicketNotFound), errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, services.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, models.ErrTicketAlreadyUsed):
		writeError(w, http.StatusConflict, "already_used")
	case errors.Is(err, models.ErrTicketNotRedeemable):
		writeError(w, http.StatusConflict, "not_redeemable")
	case errors.Is(err, models.ErrOTPExpired):
		writeError(w, http.StatusUnauthorized, "expired")
	case errors.Is(err, models.ErrInvalidOTP):
		writeError(w, http.StatusUnauthorized, "invalid_code")
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrEmailNotSent):
		writeError(w, http.StatusBadGateway, "email_send_failed")
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
