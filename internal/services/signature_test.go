package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"planora-ticketing/internal/models"
)

func TestSignatureVerifier(t *testing.T) {
	v := NewSignatureVerifier("rzp_secret")
	valid := v.Sign("order_1", "pay_1")
	tampered := []byte(valid)
	tampered[0] ^= 1

	tests := []struct {
		name      string
		verifier  *SignatureVerifier
		order     string
		payment   string
		signature string
		wantErr   error
	}{
		{name: "valid", verifier: v, order: "order_1", payment: "pay_1", signature: valid},
		{name: "other payment", verifier: v, order: "order_1", payment: "pay_2", signature: valid, wantErr: models.ErrInvalidSignature},
		{name: "tampered", verifier: v, order: "order_1", payment: "pay_1", signature: string(tampered), wantErr: models.ErrInvalidSignature},
		{name: "empty signature", verifier: v, order: "order_1", payment: "pay_1", wantErr: models.ErrInvalidSignature},
		{name: "no secret", verifier: NewSignatureVerifier(""), order: "order_1", payment: "pay_1", signature: valid, wantErr: models.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.verifier.Verify(tt.order, tt.payment, tt.signature)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Len(t, valid, 64)
}

func TestSignatureVerifier_FlipAnyCharacter(t *testing.T) {
	verifier := NewSignatureVerifier("rzp_secret")
	pairs := [][2]string{
		{"order_1", "pay_1"},
		{"order_LxM2", "pay_29QQoUBi66xm2f"},
		{"", ""},
	}

	for _, p := range pairs {
		sig := verifier.Sign(p[0], p[1])
		assert.NoError(t, verifier.Verify(p[0], p[1], sig))

		for i := range sig {
			flipped := []byte(sig)
			if flipped[i] == 'a' {
				flipped[i] = 'b'
			} else {
				flipped[i] = 'a'
			}
			assert.ErrorIs(t, verifier.Verify(p[0], p[1], string(flipped)), models.ErrInvalidSignature, "flipped index %d", i)
		}
	}

	assert.ErrorIs(t, NewSignatureVerifier("other").Verify("order_1", "pay_1", verifier.Sign("order_1", "pay_1")), models.ErrInvalidSignature)
	assert.ErrorIs(t, NewSignatureVerifier("").Verify("order_1", "pay_1", NewSignatureVerifier("").Sign("order_1", "pay_1")), models.ErrInvalidSignature)
}
