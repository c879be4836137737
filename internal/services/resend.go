package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"planora-ticketing/internal/config"
)

// ResendMailer sends mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

func NewResendMailer(cfg config.ResendConfig, email config.EmailConfig) *ResendMailer {
	from := email.FromEmail
	if email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", email.FromName, email.FromEmail)
	}
	return &ResendMailer{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		from:    from,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ResendEmailRequest is the body of POST /emails.
type ResendEmailRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []ResendAttachment `json:"attachments,omitempty"`
}

// ResendAttachment carries base64 content. ContentID makes it inline.
type ResendAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

type resendErrorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func (m *ResendMailer) Send(ctx context.Context, msg *Message) error {
	request := ResendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		att := ResendAttachment{
			Filename:    a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		}
		if a.Inline {
			att.ContentID = a.Filename
		}
		request.Attachments = append(request.Attachments, att)
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorResp resendErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Message == "" {
			return fmt.Errorf("failed to send email, status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to send email: %s", errorResp.Message)
	}
	return nil
}
