package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"

	"planora-ticketing/internal/config"
)

// Attachment is a file carried by a Message. Inline attachments are
// referenced from the HTML body as cid:<Filename>.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
	Inline      bool
}

// Message is a single outgoing email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Mailer delivers messages over some transport.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// NewMailer picks the transport named by EMAIL_PROVIDER.
func NewMailer(cfg *config.Config, logger *slog.Logger) (Mailer, error) {
	switch cfg.Email.Provider {
	case "smtp":
		return NewSMTPMailer(cfg.SMTP, cfg.Email), nil
	case "resend":
		return NewResendMailer(cfg.Resend, cfg.Email), nil
	case "log":
		return NewLogMailer(logger), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
}

// SMTPMailer sends mail through an authenticated SMTP relay. Port 465 uses
// implicit TLS, anything else STARTTLS.
type SMTPMailer struct {
	smtp  config.SMTPConfig
	email config.EmailConfig
}

func NewSMTPMailer(smtpCfg config.SMTPConfig, emailCfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{smtp: smtpCfg, email: emailCfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	mail, err := m.build(msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- mail.Send() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SMTPMailer) build(msg *Message) (*mailyak.MailYak, error) {
	addr := m.smtp.Host + ":" + strconv.Itoa(m.smtp.Port)
	auth := smtp.PlainAuth("", m.smtp.User, m.smtp.Password, m.smtp.Host)

	var mail *mailyak.MailYak
	if m.smtp.Port == 465 {
		var err error
		mail, err = mailyak.NewWithTLS(addr, auth, &tls.Config{ServerName: m.smtp.Host, MinVersion: tls.VersionTLS12})
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp client: %w", err)
		}
	} else {
		mail = mailyak.New(addr, auth)
	}

	mail.To(msg.To)
	mail.From(m.email.FromEmail)
	mail.FromName(m.email.FromName)
	mail.Subject(msg.Subject)
	mail.HTML().Set(msg.HTML)
	if msg.Text != "" {
		mail.Plain().Set(msg.Text)
	}

	for _, a := range msg.Attachments {
		if a.Inline {
			mail.AttachInlineWithMimeType(a.Filename, bytes.NewReader(a.Content), a.ContentType)
		} else {
			mail.AttachWithMimeType(a.Filename, bytes.NewReader(a.Content), a.ContentType)
		}
	}
	return mail, nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	m.logger.InfoContext(ctx, "email not sent, log provider",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", names,
		"text", msg.Text,
	)
	return nil
}
