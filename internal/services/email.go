package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/monitoring"
)

const (
	qrInlineName = "ticket-qr.png"

	ticketSubjectFmt = "Your Entry Pass for %s is Ready"
	otpSubject       = "Verify Your Email - Planora Tickets"
)

// TicketEmail is the data behind a ticket delivery email.
type TicketEmail struct {
	Ticket    *models.Ticket
	Event     *models.Event
	Template  models.TicketTemplate
	QRPNG     []byte
	PDF       []byte
	TicketURL string
	PDFURL    string
}

type ticketEmailData struct {
	Name        string
	Email       string
	TicketID    string
	EventTitle  string
	EventInfo   string
	Description string
	TicketURL   string
	PDFURL      string
	HasQR       bool
	QRCID       string
	Brand       models.TicketTemplate
	Support     string
}

type otpEmailData struct {
	Code    string
	Minutes int
	Support string
}

// Notifier composes and sends attendee emails.
type Notifier struct {
	mailer       Mailer
	supportEmail string
	logger       *slog.Logger
	ticketHTML   *template.Template
	ticketText   *texttemplate.Template
	otpHTML      *template.Template
}

// NewNotifier creates a notifier that delivers through mailer.
func NewNotifier(mailer Mailer, supportEmail string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:       mailer,
		supportEmail: supportEmail,
		logger:       logger,
		ticketHTML:   template.Must(template.New("ticket").Parse(ticketHTMLTemplate)),
		ticketText:   texttemplate.Must(texttemplate.New("ticket_text").Parse(ticketTextTemplate)),
		otpHTML:      template.Must(template.New("otp").Parse(otpHTMLTemplate)),
	}
}

// SendTicket emails the entry pass. Delivery failures are logged and
// reported through the return value only; they never fail issuance.
func (n *Notifier) SendTicket(ctx context.Context, mail TicketEmail) bool {
	msg, err := n.ticketMessage(mail)
	if err == nil {
		err = n.mailer.Send(ctx, msg)
	}
	if err != nil {
		n.logger.WarnContext(ctx, "ticket email failed",
			"ticket_id", mail.Ticket.ID,
			"email", mail.Ticket.Email,
			"error", err,
		)
		monitoring.TrackEmail("ticket", "failed")
		return false
	}

	n.logger.InfoContext(ctx, "ticket email sent", "ticket_id", mail.Ticket.ID, "email", mail.Ticket.Email)
	monitoring.TrackEmail("ticket", "sent")
	return true
}

// SendOTP emails a one-time login code.
func (n *Notifier) SendOTP(ctx context.Context, email, code string, minutes int) error {
	var html bytes.Buffer
	if err := n.otpHTML.Execute(&html, otpEmailData{Code: code, Minutes: minutes, Support: n.supportEmail}); err != nil {
		return fmt.Errorf("failed to render otp email: %w", err)
	}

	err := n.mailer.Send(ctx, &Message{
		To:      email,
		Subject: otpSubject,
		HTML:    html.String(),
		Text:    fmt.Sprintf("Your Planora verification code is %s. It expires in %d minutes.", code, minutes),
	})
	if err != nil {
		n.logger.WarnContext(ctx, "otp email failed", "email", email, "error", err)
		monitoring.TrackEmail("otp", "failed")
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	monitoring.TrackEmail("otp", "sent")
	return nil
}

func (n *Notifier) ticketMessage(mail TicketEmail) (*Message, error) {
	t := mail.Ticket
	data := ticketEmailData{
		Name:       t.Name,
		Email:      t.Email,
		TicketID:   strings.ToUpper(truncateID(t.ID, 12)),
		EventTitle: "Planora Event",
		TicketURL:  mail.TicketURL,
		PDFURL:     mail.PDFURL,
		HasQR:      len(mail.QRPNG) > 0,
		QRCID:      qrInlineName,
		Brand:      mail.Template.WithDefaults(),
		Support:    n.supportEmail,
	}
	if e := mail.Event; e != nil {
		if e.Title != "" {
			data.EventTitle = e.Title
		}
		info := []string{e.DateLabel()}
		if e.Location != "" {
			info = append(info, e.Location)
		}
		data.EventInfo = strings.Join(info, " • ")
		data.Description = truncate(e.Description, 120)
	}

	var html, text bytes.Buffer
	if err := n.ticketHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render ticket email: %w", err)
	}
	if err := n.ticketText.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render ticket email text: %w", err)
	}

	msg := &Message{
		To:      t.Email,
		Subject: fmt.Sprintf(ticketSubjectFmt, data.EventTitle),
		HTML:    html.String(),
		Text:    text.String(),
	}
	if data.HasQR {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: qrInlineName, ContentType: "image/png", Content: mail.QRPNG, Inline: true,
		})
	}
	if len(mail.PDF) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: fmt.Sprintf("ticket-%s.pdf", t.ShortID()), ContentType: "application/pdf", Content: mail.PDF,
		})
	}
	return msg, nil
}

func truncateID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

const ticketHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Your Entry Pass - Planora</title>
</head>
<body style="margin:0;padding:0;background:#0b1220;font-family:Arial,sans-serif;">
<div style="max-width:640px;margin:24px auto;background:#111827;border-radius:14px;overflow:hidden;">
  <div style="background:{{.Brand.BrandPrimary}};color:#ffffff;padding:32px 24px;text-align:center;">
    <div style="font-size:13px;font-weight:700;letter-spacing:2px;text-transform:uppercase;">Welcome to Planora</div>
    <div style="font-size:24px;font-weight:800;">{{.Brand.HeaderTitle}}</div>
  </div>
  <div style="padding:32px 24px;color:#e5e7eb;">
    <p>Hi <strong style="color:{{.Brand.BrandPrimary}};">{{.Name}}</strong>,</p>
    <p>Thank you for registering! Your entry pass has been confirmed and is ready to use.</p>
    <div style="border-left:4px solid {{.Brand.BrandPrimary}};padding:16px;margin:24px 0;">
      <div style="font-weight:800;color:#f8fafc;">{{.EventTitle}}</div>
      {{if .EventInfo}}<div style="font-size:12px;color:#cbd5e1;">{{.EventInfo}}</div>{{end}}
      {{if .Description}}<div style="font-size:12px;color:#94a3b8;">{{.Description}}</div>{{end}}
    </div>
    <table style="width:100%;border-collapse:collapse;">
      <tr><td style="padding:8px 0;color:#94a3b8;font-size:11px;">FULL NAME</td><td>{{.Name}}</td></tr>
      <tr><td style="padding:8px 0;color:#94a3b8;font-size:11px;">EMAIL</td><td>{{.Email}}</td></tr>
      <tr><td style="padding:8px 0;color:#94a3b8;font-size:11px;">TICKET ID</td><td style="color:{{.Brand.BrandAccent}};font-family:monospace;">{{.TicketID}}</td></tr>
    </table>
    {{if .HasQR}}
    <div style="text-align:center;margin:24px 0;padding:20px;border:2px solid {{.Brand.BrandAccent}};border-radius:10px;">
      <div style="font-size:12px;font-weight:700;text-transform:uppercase;">Scan to Verify at Entry</div>
      <img src="cid:{{.QRCID}}" alt="QR Code" width="160" height="160">
      <div style="font-size:12px;color:#9ca3af;">Show this QR code at the entrance. Do not share publicly.</div>
    </div>
    {{end}}
    <p>
      <a href="{{.TicketURL}}" style="color:{{.Brand.BrandPrimary}};">View Full Ticket</a> |
      <a href="{{.PDFURL}}" style="color:{{.Brand.BrandAccent}};">Download PDF</a>
    </p>
    <p><strong>Important:</strong> This pass is valid for <strong>one entry</strong> only. Photo ID may be required.</p>
  </div>
  <div style="padding:16px;text-align:center;color:#6b7280;font-size:12px;">Need help? Contact {{.Support}}</div>
</div>
</body>
</html>`

const ticketTextTemplate = `Hi {{.Name}},

Your entry pass for {{.EventTitle}} is confirmed.
{{if .EventInfo}}{{.EventInfo}}
{{end}}
Ticket ID: {{.TicketID}}
View ticket: {{.TicketURL}}
Download PDF: {{.PDFURL}}

This pass is valid for one entry. Photo ID may be required.
Need help? Contact {{.Support}}
`

const otpHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Verify Your Email - Planora</title>
</head>
<body style="margin:0;padding:0;background:#0b1220;font-family:Arial,sans-serif;">
<div style="max-width:560px;margin:24px auto;background:#111827;border-radius:14px;color:#e5e7eb;padding:32px 24px;text-align:center;">
  <div style="font-size:13px;font-weight:700;letter-spacing:2px;text-transform:uppercase;">Planora</div>
  <h1 style="font-size:22px;">Verify Your Email</h1>
  <p>Use this code to view your tickets:</p>
  <div style="font-size:32px;font-weight:800;letter-spacing:8px;font-family:monospace;">{{.Code}}</div>
  <p style="font-size:12px;color:#9ca3af;">The code expires in {{.Minutes}} minutes and can be used once.</p>
  <p style="font-size:12px;color:#6b7280;">Need help? Contact {{.Support}}</p>
</div>
</body>
</html>`
