package services

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	qrSize          = 256
	qrDataURLPrefix = "data:image/png;base64,"
)

// QREncoder renders the door-scan code for a ticket.
type QREncoder struct {
	level qrcode.RecoveryLevel
	size  int
}

func NewQREncoder() *QREncoder {
	return &QREncoder{level: qrcode.Medium, size: qrSize}
}

// Payload returns "<ticket_id>|<email>".
func Payload(ticketID, email string) string {
	return ticketID + "|" + email
}

// ParsePayload splits a scanned payload into ticket id and email. It fails
// unless there are exactly two non-empty parts. The email is returned as
// scanned and must match the stored one byte for byte.
func ParsePayload(data string) (ticketID, email string, err error) {
	parts := strings.Split(data, "|")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected 2 payload parts, got %d", len(parts))
	}
	ticketID, email = strings.TrimSpace(parts[0]), parts[1]
	if ticketID == "" || email == "" {
		return "", "", fmt.Errorf("empty payload part")
	}
	return ticketID, email, nil
}

// Encode returns the PNG for a ticket. Equal inputs produce equal bytes.
func (e *QREncoder) Encode(ticketID, email string) ([]byte, error) {
	png, err := qrcode.Encode(Payload(ticketID, email), e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	return png, nil
}

// DataURL wraps a PNG as a data: URL.
func DataURL(png []byte) string {
	return qrDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURL returns the PNG held in a data URL produced by DataURL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, qrDataURLPrefix) {
		return nil, fmt.Errorf("not a png data url")
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, qrDataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid data url: %w", err)
	}
	if len(png) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	return png, nil
}
