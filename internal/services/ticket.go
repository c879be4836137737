package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/monitoring"
)

const (
	lookupLimit = 10

	issuedMessage   = "Successfully registered for the event. Your ticket has been emailed."
	existingMessage = "Ticket already issued for this payment."
)

// ErrEmailNotSent is returned when an explicit resend could not be delivered.
var ErrEmailNotSent = errors.New("email_send_failed")

// TicketService issues, verifies and redeems tickets.
type TicketService struct {
	tickets    TicketStore
	events     EventStore
	signer     *SignatureVerifier
	gateway    PaymentGateway
	qr         *QREncoder
	pdf        *PDFService
	artwork    ArtworkSource
	templates  *TemplateService
	storage    StorageService
	notifier   *Notifier
	baseURL    string
	urlExpires time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewTicketService creates a new ticket service
func NewTicketService(
	tickets TicketStore,
	events EventStore,
	signer *SignatureVerifier,
	gateway PaymentGateway,
	qr *QREncoder,
	pdf *PDFService,
	artwork ArtworkSource,
	templates *TemplateService,
	storage StorageService,
	notifier *Notifier,
	baseURL string,
	urlExpires time.Duration,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		tickets:    tickets,
		events:     events,
		signer:     signer,
		gateway:    gateway,
		qr:         qr,
		pdf:        pdf,
		artwork:    artwork,
		templates:  templates,
		storage:    storage,
		notifier:   notifier,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		urlExpires: urlExpires,
		logger:     logger,
		now:        time.Now,
	}
}

// Issue turns a signed Razorpay callback into a ticket. Repeated callbacks
// for the same payment return the ticket created by the first one.
func (s *TicketService) Issue(ctx context.Context, req *models.IssueRequest) (*models.IssueResult, error) {
	start := s.now()

	req.Metadata.Name = strings.TrimSpace(req.Metadata.Name)
	// stored as normalised; the QR payload and door check use this exact string
	req.Metadata.Email = models.NormalizeEmail(req.Metadata.Email)
	if err := models.Validate(req); err != nil {
		monitoring.TrackIssuance("invalid", time.Since(start))
		return nil, err
	}

	log := s.logger.With("payment_id", req.PaymentID, "order_id", req.OrderID)

	if err := s.signer.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		log.WarnContext(ctx, "rejected payment callback with bad signature")
		monitoring.TrackIssuance("invalid_signature", time.Since(start))
		return nil, err
	}
	if err := s.gateway.ConfirmCapture(ctx, req.OrderID, req.PaymentID); err != nil {
		log.WarnContext(ctx, "payment not confirmed by gateway", "error", err)
		monitoring.TrackIssuance("not_captured", time.Since(start))
		return nil, err
	}

	existing, err := s.tickets.FindByPaymentRef(ctx, req.PaymentID)
	if err == nil {
		monitoring.TrackIssuance("existing", time.Since(start))
		return s.existingResult(ctx, existing), nil
	}
	if !errors.Is(err, models.ErrTicketNotFound) {
		return nil, fmt.Errorf("failed to check existing ticket: %w", err)
	}

	event := s.loadEvent(ctx, req.Metadata.EventID)

	ticket := &models.Ticket{
		ID:                uuid.NewString(),
		Name:              req.Metadata.Name,
		Email:             req.Metadata.Email,
		Phone:             strings.TrimSpace(req.Metadata.Phone),
		College:           strings.TrimSpace(req.Metadata.College),
		IEEE:              strings.TrimSpace(req.Metadata.IEEE),
		PaymentID:         req.PaymentID,
		RazorpayOrderID:   req.OrderID,
		RazorpaySignature: req.Signature,
	}
	if event != nil {
		ticket.EventID = event.ID
	}
	if req.Metadata.Amount != "" {
		if amount, err := decimal.NewFromString(req.Metadata.Amount); err == nil {
			ticket.AmountPaid = decimal.NewNullDecimal(amount)
		}
	}

	if err := s.tickets.InsertPending(ctx, ticket); err != nil {
		if errors.Is(err, models.ErrDuplicatePayment) {
			if existing, ferr := s.tickets.FindByPaymentRef(ctx, req.PaymentID); ferr == nil {
				monitoring.TrackIssuance("existing", time.Since(start))
				return s.existingResult(ctx, existing), nil
			}
		}
		monitoring.TrackIssuance("failed", time.Since(start))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	log = log.With("ticket_id", ticket.ID)
	result, err := s.complete(ctx, ticket, event)
	if err != nil {
		log.ErrorContext(ctx, "ticket issuance failed", "error", err)
		if merr := s.tickets.MarkFailed(ctx, ticket.ID); merr != nil {
			log.ErrorContext(ctx, "failed to mark ticket failed", "error", merr)
		}
		monitoring.TrackIssuance("failed", time.Since(start))
		return nil, err
	}

	log.InfoContext(ctx, "ticket issued", "email", ticket.Email, "event_id", ticket.EventID)
	monitoring.TrackIssuance("issued", time.Since(start))
	return result, nil
}

// complete generates the artifacts for a pending ticket and moves it to issued.
func (s *TicketService) complete(ctx context.Context, ticket *models.Ticket, event *models.Event) (*models.IssueResult, error) {
	qrPNG, err := s.qr.Encode(ticket.ID, ticket.Email)
	if err != nil {
		return nil, err
	}
	ticket.QR = DataURL(qrPNG)
	if err := s.tickets.AttachArtifact(ctx, ticket.ID, ticket.QR); err != nil {
		return nil, fmt.Errorf("failed to store qr: %w", err)
	}

	tpl := s.templates.Get(ctx, ticket.EventID)
	pdf, err := s.pdf.Render(TicketDocument{
		Ticket:   ticket,
		Event:    event,
		Template: tpl,
		QRPNG:    qrPNG,
		Artwork:  s.fetchArtwork(ctx, event),
	})
	if err != nil {
		return nil, err
	}

	key := ticket.DocumentKey()
	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(pdf), "application/pdf", int64(len(pdf))); err != nil {
		return nil, fmt.Errorf("failed to upload ticket pdf: %w", err)
	}

	result := &models.IssueResult{
		TicketID:  ticket.ID,
		TicketURL: s.ticketURL(ticket.ID),
		PDFURL:    s.documentURL(ctx, ticket.ID),
		Message:   issuedMessage,
	}

	s.notifier.SendTicket(ctx, TicketEmail{
		Ticket:    ticket,
		Event:     event,
		Template:  tpl,
		QRPNG:     qrPNG,
		PDF:       pdf,
		TicketURL: result.TicketURL,
		PDFURL:    result.PDFURL,
	})

	if err := s.tickets.MarkIssued(ctx, ticket.ID); err != nil {
		return nil, fmt.Errorf("failed to mark ticket issued: %w", err)
	}
	ticket.Status = models.TicketIssued
	return result, nil
}

func (s *TicketService) existingResult(ctx context.Context, t *models.Ticket) *models.IssueResult {
	return &models.IssueResult{
		TicketID:  t.ID,
		TicketURL: s.ticketURL(t.ID),
		PDFURL:    s.documentURL(ctx, t.ID),
		Message:   existingMessage,
		Existing:  true,
	}
}

// Verify answers a door scan. Rejections are results, not errors; an error
// means the lookup itself failed.
func (s *TicketService) Verify(ctx context.Context, data string) (*models.VerificationResult, error) {
	id, email, err := ParsePayload(data)
	if err != nil {
		monitoring.TrackScan("invalid_qr")
		return models.Reject(models.ReasonInvalidQR), nil
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			monitoring.TrackScan("not_found")
			return models.Reject(models.ReasonNotFound), nil
		}
		return nil, err
	}

	switch {
	case ticket.Email != email:
		monitoring.TrackScan("email_mismatch")
		return models.Reject(models.ReasonEmailMismatch), nil
	case ticket.Used:
		monitoring.TrackScan("already_used")
		return models.AlreadyUsed(ticket.UsedAt), nil
	case ticket.Status != models.TicketIssued:
		monitoring.TrackScan("wrong_status")
		return models.WrongStatus(ticket.Status), nil
	}

	monitoring.TrackScan("valid")
	return models.Accept(ticket), nil
}

// Redeem admits a ticket. Only one of any number of concurrent calls for
// the same ticket succeeds.
func (s *TicketService) Redeem(ctx context.Context, ticketID string) error {
	if !validTicketID(ticketID) {
		monitoring.TrackRedemption("not_found")
		return models.ErrTicketNotFound
	}

	err := s.tickets.MarkRedeemed(ctx, ticketID, s.now().UTC())
	switch {
	case err == nil:
		monitoring.TrackRedemption("redeemed")
		s.logger.InfoContext(ctx, "ticket redeemed", "ticket_id", ticketID)
		return nil
	case errors.Is(err, models.ErrTicketAlreadyUsed):
		monitoring.TrackRedemption("already_used")
	case errors.Is(err, models.ErrTicketNotRedeemable):
		monitoring.TrackRedemption("not_redeemable")
	case errors.Is(err, models.ErrTicketNotFound):
		monitoring.TrackRedemption("not_found")
	default:
		monitoring.TrackRedemption("error")
	}
	return err
}

// Get returns a ticket with a signed link to its document.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*models.TicketView, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &models.TicketView{Ticket: ticket, PDFURL: s.documentURL(ctx, ticket.ID)}, nil
}

// RenderPDF draws the ticket document on demand from the stored record.
func (s *TicketService) RenderPDF(ctx context.Context, ticketID string) ([]byte, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, ticket)
}

func (s *TicketService) render(ctx context.Context, ticket *models.Ticket) ([]byte, error) {
	qrPNG, err := DecodeDataURL(ticket.QR)
	if err != nil {
		if qrPNG, err = s.qr.Encode(ticket.ID, ticket.Email); err != nil {
			return nil, err
		}
	}

	event := s.loadEvent(ctx, ticket.EventID)
	return s.pdf.Render(TicketDocument{
		Ticket:   ticket,
		Event:    event,
		Template: s.templates.Get(ctx, ticket.EventID),
		QRPNG:    qrPNG,
		Artwork:  s.fetchArtwork(ctx, event),
	})
}

// LookupByEmail returns the most recent tickets registered to email.
func (s *TicketService) LookupByEmail(ctx context.Context, email string) ([]*models.TicketView, error) {
	tickets, err := s.tickets.ListByEmail(ctx, models.NormalizeEmail(email), lookupLimit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, tickets), nil
}

// Roster lists every ticket of an event.
func (s *TicketService) Roster(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	return s.tickets.ListByEvent(ctx, eventID)
}

// Search is the admin ticket listing.
func (s *TicketService) Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error) {
	filters.Normalize()
	return s.tickets.Search(ctx, filters)
}

// ToggleUsed flips the used flag from the admin dashboard and returns the new value.
func (s *TicketService) ToggleUsed(ctx context.Context, ticketID string) (bool, error) {
	if !validTicketID(ticketID) {
		return false, models.ErrTicketNotFound
	}
	used, err := s.tickets.ToggleUsed(ctx, ticketID)
	if err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "ticket used flag toggled", "ticket_id", ticketID, "used", used)
	return used, nil
}

// Delete removes a ticket and its stored document.
func (s *TicketService) Delete(ctx context.Context, ticketID string) error {
	if !validTicketID(ticketID) {
		return models.ErrTicketNotFound
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, models.DocumentKey(ticketID)); err != nil && !errors.Is(err, ErrObjectNotFound) {
		s.logger.WarnContext(ctx, "failed to delete ticket pdf", "ticket_id", ticketID, "error", err)
	}
	s.logger.InfoContext(ctx, "ticket deleted", "ticket_id", ticketID)
	return nil
}

// Resend emails the ticket again, reusing the stored document when present.
func (s *TicketService) Resend(ctx context.Context, ticketID string) error {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	pdf, err := s.storage.Download(ctx, ticket.DocumentKey())
	if err != nil {
		if pdf, err = s.render(ctx, ticket); err != nil {
			return err
		}
	}

	qrPNG, err := DecodeDataURL(ticket.QR)
	if err != nil {
		qrPNG = nil
	}

	sent := s.notifier.SendTicket(ctx, TicketEmail{
		Ticket:    ticket,
		Event:     s.loadEvent(ctx, ticket.EventID),
		Template:  s.templates.Get(ctx, ticket.EventID),
		QRPNG:     qrPNG,
		PDF:       pdf,
		TicketURL: s.ticketURL(ticket.ID),
		PDFURL:    s.documentURL(ctx, ticket.ID),
	})
	if !sent {
		return ErrEmailNotSent
	}
	return nil
}

func (s *TicketService) views(ctx context.Context, tickets []*models.Ticket) []*models.TicketView {
	views := make([]*models.TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, &models.TicketView{Ticket: t, PDFURL: s.documentURL(ctx, t.ID)})
	}
	return views
}

// getTicket loads a ticket, treating malformed ids as unknown.
func (s *TicketService) getTicket(ctx context.Context, id string) (*models.Ticket, error) {
	if !validTicketID(id) {
		return nil, models.ErrTicketNotFound
	}
	return s.tickets.GetByID(ctx, id)
}

func (s *TicketService) loadEvent(ctx context.Context, eventID string) *models.Event {
	if eventID == "" {
		return nil
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "event unavailable for ticket", "event_id", eventID, "error", err)
		return nil
	}
	return event
}

func (s *TicketService) fetchArtwork(ctx context.Context, event *models.Event) []byte {
	if event == nil || event.ImageURL == "" {
		return nil
	}
	data, err := s.artwork.FetchArtwork(ctx, event.ImageURL)
	if err != nil {
		s.logger.DebugContext(ctx, "rendering ticket without artwork", "event_id", event.ID, "error", err)
		return nil
	}
	return data
}

func (s *TicketService) ticketURL(id string) string {
	return s.baseURL + "/ticket/" + id
}

// documentURL signs the stored PDF. Storage that cannot sign falls back to
// the on-demand render endpoint.
func (s *TicketService) documentURL(ctx context.Context, id string) string {
	url, err := s.storage.SignedURL(ctx, models.DocumentKey(id), s.urlExpires)
	if err != nil || url == "" {
		return s.baseURL + "/api/ticket-pdf?id=" + id
	}
	return url
}

func validTicketID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
