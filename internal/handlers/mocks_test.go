package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/services"

	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockTicketService for testing
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Issue(ctx context.Context, req *models.IssueRequest) (*models.IssueResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssueResult), args.Error(1)
}

func (m *MockTicketService) Verify(ctx context.Context, data string) (*models.VerificationResult, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationResult), args.Error(1)
}

func (m *MockTicketService) Redeem(ctx context.Context, ticketID string) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *MockTicketService) Get(ctx context.Context, ticketID string) (*models.TicketView, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketView), args.Error(1)
}

func (m *MockTicketService) RenderPDF(ctx context.Context, ticketID string) ([]byte, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTicketService) LookupByEmail(ctx context.Context, email string) ([]*models.TicketView, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TicketView), args.Error(1)
}

func (m *MockTicketService) Roster(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketService) Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *MockTicketService) ToggleUsed(ctx context.Context, ticketID string) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketService) Delete(ctx context.Context, ticketID string) error {
	return m.Called(ctx, ticketID).Error(0)
}

func (m *MockTicketService) Resend(ctx context.Context, ticketID string) error {
	return m.Called(ctx, ticketID).Error(0)
}

// MockOrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req services.OrderRequest) (*services.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Order), args.Error(1)
}

func (m *MockOrderService) KeyID() string {
	return m.Called().String(0)
}

// MockOTPService for testing
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) Request(ctx context.Context, req *models.OTPRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockOTPService) Verify(ctx context.Context, req *models.OTPVerifyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockOTPService) Authorize(token, email string) error {
	return m.Called(token, email).Error(0)
}

// MockEventService for testing
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) ListPublished(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventService) ListForAdmin(ctx context.Context) ([]*models.AdminEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AdminEvent), args.Error(1)
}

func (m *MockEventService) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventService) Owned(ctx context.Context, organizerID, eventID string) (*models.Event, error) {
	args := m.Called(ctx, organizerID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Create(ctx context.Context, organizerID string, form *models.EventForm, cover *services.CoverUpload) (*models.Event, error) {
	args := m.Called(ctx, organizerID, form, cover)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, organizerID string, form *models.EventForm, cover *services.CoverUpload) (*models.Event, error) {
	args := m.Called(ctx, organizerID, form, cover)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) AssignOrganizer(ctx context.Context, req *models.AssignOrganizerRequest) error {
	return m.Called(ctx, req).Error(0)
}

// MockAnalyticsService for testing
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) EventStats(ctx context.Context, eventID string, withRecent bool) (*models.EventStats, error) {
	args := m.Called(ctx, eventID, withRecent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventStats), args.Error(1)
}

// MockTemplateService for testing
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Get(ctx context.Context, eventID string) models.TicketTemplate {
	return m.Called(ctx, eventID).Get(0).(models.TicketTemplate)
}

func (m *MockTemplateService) Raw(ctx context.Context, eventID string) (*models.TicketTemplate, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketTemplate), args.Error(1)
}

func (m *MockTemplateService) Put(ctx context.Context, eventID string, raw []byte) (*models.TicketTemplate, error) {
	args := m.Called(ctx, eventID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketTemplate), args.Error(1)
}

// MockAdminSessions for testing
type MockAdminSessions struct {
	mock.Mock
}

func (m *MockAdminSessions) Login(w http.ResponseWriter, r *http.Request, secret string) (time.Time, error) {
	args := m.Called(secret)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockAdminSessions) Logout(w http.ResponseWriter, r *http.Request) error {
	return m.Called().Error(0)
}

func (m *MockAdminSessions) Status(r *http.Request) (bool, time.Time) {
	args := m.Called()
	return args.Bool(0), args.Get(1).(time.Time)
}
