package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var paiseInRupee = decimal.NewFromInt(100)

// PaymentHandler runs the Razorpay checkout: order creation and the signed
// callback that issues the ticket.
type PaymentHandler struct {
	orders        OrderServiceInterface
	events        EventServiceInterface
	tickets       TicketServiceInterface
	defaultAmount int64
	logger        *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(orders OrderServiceInterface, events EventServiceInterface, tickets TicketServiceInterface, defaultAmount int64, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		orders:        orders,
		events:        events,
		tickets:       tickets,
		defaultAmount: defaultAmount,
		logger:        logger,
	}
}

// CreateOrderResponse is handed to the checkout widget
type CreateOrderResponse struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	RazorpayKey string `json:"razorpayKey"`
}

// CreateOrder handles POST /api/create-order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "order_failed")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := models.Validate(&req); err != nil {
		respondError(w, r, h.logger, err, "order_failed")
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), services.OrderRequest{
		Amount:  h.amount(r, &req),
		Receipt: "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Notes: map[string]string{
			"name":    req.Name,
			"email":   req.Email,
			"eventId": req.EventID,
		},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create razorpay order", "error", err)
		writeError(w, http.StatusBadGateway, "order_failed")
		return
	}

	writeJSON(w, http.StatusOK, CreateOrderResponse{
		OrderID:     order.ID,
		Amount:      order.Amount,
		RazorpayKey: h.orders.KeyID(),
	})
}

// amount prefers the stored event price over whatever the client sent.
func (h *PaymentHandler) amount(r *http.Request, req *models.CreateOrderRequest) int64 {
	if req.EventID != "" {
		event, err := h.events.GetByID(r.Context(), req.EventID)
		switch {
		case err == nil && event.PriceINR.IsPositive():
			return event.PriceINR.Mul(paiseInRupee).Round(0).IntPart()
		case err != nil && !errors.Is(err, models.ErrEventNotFound):
			h.logger.WarnContext(r.Context(), "failed to load event price", "event_id", req.EventID, "error", err)
		}
	}
	if req.Amount > 0 {
		return req.Amount
	}
	return h.defaultAmount
}

// VerifyPayment handles POST /api/verify-payment, the checkout callback
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.IssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err, "ticket_failed")
		return
	}

	result, err := h.tickets.Issue(r.Context(), &req)
	if err != nil {
		respondError(w, r, h.logger, err, "ticket_failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
