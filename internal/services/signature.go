package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"planora-ticketing/internal/models"
)

// SignatureVerifier checks Razorpay checkout callbacks.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(keySecret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(keySecret)}
}

// Sign returns hex(HMAC-SHA256(secret, orderID|paymentID)).
func (v *SignatureVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against the expected HMAC in constant time.
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) error {
	if len(v.secret) == 0 {
		return models.ErrInvalidSignature
	}
	expected := v.Sign(orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return models.ErrInvalidSignature
	}
	return nil
}
