package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/models"
)

// Payment states Razorpay reports for a completed checkout.
const (
	PaymentCaptured   = "captured"
	PaymentAuthorized = "authorized"
)

// RazorpayService talks to the Razorpay REST API
type RazorpayService struct {
	config  config.RazorpayConfig
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewRazorpayService creates a new Razorpay client
func NewRazorpayService(cfg config.RazorpayConfig, logger *slog.Logger) *RazorpayService {
	return &RazorpayService{
		config:  cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// KeyID is the public key handed to the checkout widget.
func (s *RazorpayService) KeyID() string {
	return s.config.KeyID
}

// OrderRequest is the body of POST /v1/orders
type OrderRequest struct {
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is a Razorpay order
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment is the subset of a Razorpay payment used to confirm capture
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	Captured bool   `json:"captured"`
}

// RazorpayError represents an error response from Razorpay
type RazorpayError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *RazorpayError) Error() string {
	return fmt.Sprintf("razorpay error (%d %s): %s", e.StatusCode, e.Code, e.Description)
}

// CreateOrder creates a checkout order
func (s *RazorpayService) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Currency == "" {
		req.Currency = s.config.Currency
	}

	var order Order
	if err := s.do(ctx, http.MethodPost, "/v1/orders", req, &order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("razorpay order created", "order_id", order.ID, "amount", order.Amount, "receipt", order.Receipt)
	return &order, nil
}

// FetchPayment retrieves a payment by id
func (s *RazorpayService) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := s.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &payment); err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

// ConfirmCapture asks the gateway whether paymentID completed against
// orderID. It is a no-op when capture verification is disabled.
func (s *RazorpayService) ConfirmCapture(ctx context.Context, orderID, paymentID string) error {
	if !s.config.VerifyCapture {
		return nil
	}

	payment, err := s.FetchPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPaymentNotCaptured, err)
	}

	if payment.OrderID != orderID {
		s.logger.Warn("payment order mismatch", "payment_id", paymentID, "order_id", orderID, "gateway_order_id", payment.OrderID)
		return models.ErrPaymentNotCaptured
	}
	if payment.Status != PaymentCaptured && payment.Status != PaymentAuthorized {
		s.logger.Warn("payment not captured", "payment_id", paymentID, "status", payment.Status)
		return models.ErrPaymentNotCaptured
	}
	return nil
}

func (s *RazorpayService) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error RazorpayError `json:"error"`
		}
		_ = json.Unmarshal(respBody, &envelope)
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
