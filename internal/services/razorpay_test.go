package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/models"
)

func newTestRazorpay(t *testing.T, handler http.HandlerFunc, verifyCapture bool) *RazorpayService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewRazorpayService(config.RazorpayConfig{
		KeyID:         "rzp_key",
		KeySecret:     "rzp_secret",
		BaseURL:       server.URL,
		VerifyCapture: verifyCapture,
		Currency:      "INR",
	}, testLogger())
}

func TestRazorpayService_CreateOrder(t *testing.T) {
	svc := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "INR", req.Currency)

		json.NewEncoder(w).Encode(Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt})
	}, true)

	order, err := svc.CreateOrder(context.Background(), OrderRequest{Amount: 100000, Receipt: "rcpt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, int64(100000), order.Amount)
}

func TestRazorpayService_ConfirmCapture(t *testing.T) {
	payments := map[string]Payment{
		"pay_ok":      {ID: "pay_ok", OrderID: "order_1", Status: PaymentCaptured},
		"pay_failed":  {ID: "pay_failed", OrderID: "order_1", Status: "failed"},
		"pay_reorder": {ID: "pay_reorder", OrderID: "order_2", Status: PaymentCaptured},
	}
	svc := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/v1/payments/"):]
		payment, ok := payments[id]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
			return
		}
		json.NewEncoder(w).Encode(payment)
	}, true)
	ctx := context.Background()

	assert.NoError(t, svc.ConfirmCapture(ctx, "order_1", "pay_ok"))
	assert.ErrorIs(t, svc.ConfirmCapture(ctx, "order_1", "pay_failed"), models.ErrPaymentNotCaptured)
	assert.ErrorIs(t, svc.ConfirmCapture(ctx, "order_1", "pay_reorder"), models.ErrPaymentNotCaptured)

	err := svc.ConfirmCapture(ctx, "order_1", "pay_missing")
	assert.ErrorIs(t, err, models.ErrPaymentNotCaptured)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRazorpayService_ConfirmCaptureDisabled(t *testing.T) {
	svc := newTestRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called when capture verification is off")
	}, false)

	assert.NoError(t, svc.ConfirmCapture(context.Background(), "order_1", "pay_1"))
}
