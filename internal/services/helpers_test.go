package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"planora-ticketing/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockStorageService is a testify mock of StorageService
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	args := m.Called(ctx, key, reader, contentType, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageService) GetURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockStorageService) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	args := m.Called(ctx, key, expires)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// memStorage is an in-memory StorageService for flow tests.
type memStorage struct {
	mu      sync.Mutex
	objects  map[string][]byte
	failPut  bool
	noSigned bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	if s.failPut {
		return "", io.ErrClosedPipe
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.GetURL(key), nil
}

func (s *memStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return bytes.Clone(data), nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) GetURL(key string) string {
	return "https://files.test/" + key
}

func (s *memStorage) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if s.noSigned {
		return "", ErrNotSignable
	}
	return "https://files.test/" + key + "?expires=" + expires.String(), nil
}

func (s *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

// recordingMailer captures sent messages.
type recordingMailer struct {
	mu   sync.Mutex
	sent []*Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Message(nil), m.sent...)
}

// memTicketStore is an in-memory TicketStore with the same state rules as
// the SQL repository.
type memTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	order   []string
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: make(map[string]*models.Ticket)}
}

func (s *memTicketStore) put(t *models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
	s.order = append(s.order, t.ID)
}

func (s *memTicketStore) FindByPaymentRef(ctx context.Context, paymentID string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if t, ok := s.tickets[id]; ok && t.PaymentID == paymentID && t.Status != models.TicketCancelled {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (s *memTicketStore) InsertPending(ctx context.Context, t *models.Ticket) error {
	if _, err := s.FindByPaymentRef(ctx, t.PaymentID); err == nil {
		return models.ErrDuplicatePayment
	}
	t.Status = models.TicketPending
	t.CreatedAt = time.Now().UTC()
	s.put(t)
	return nil
}

func (s *memTicketStore) update(id string, fn func(t *models.Ticket) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return models.ErrTicketNotFound
	}
	return fn(t)
}

func (s *memTicketStore) AttachArtifact(ctx context.Context, id, qr string) error {
	return s.update(id, func(t *models.Ticket) error { t.QR = qr; return nil })
}

func (s *memTicketStore) MarkIssued(ctx context.Context, id string) error {
	return s.update(id, func(t *models.Ticket) error {
		if t.Status != models.TicketPending {
			return models.ErrTicketNotFound
		}
		t.Status = models.TicketIssued
		return nil
	})
}

func (s *memTicketStore) MarkFailed(ctx context.Context, id string) error {
	return s.update(id, func(t *models.Ticket) error {
		if t.Status != models.TicketPending {
			return models.ErrTicketNotFound
		}
		t.Status = models.TicketFailed
		return nil
	})
}

func (s *memTicketStore) MarkRedeemed(ctx context.Context, id string, at time.Time) error {
	return s.update(id, func(t *models.Ticket) error {
		if t.Used {
			return models.ErrTicketAlreadyUsed
		}
		if t.Status != models.TicketIssued {
			return models.ErrTicketNotRedeemable
		}
		t.Used, t.UsedAt, t.CheckedInAt, t.Status = true, &at, &at, models.TicketRedeemed
		return nil
	})
}

func (s *memTicketStore) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTicketStore) ListByEmail(ctx context.Context, email string, limit int) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Ticket
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		if t, ok := s.tickets[s.order[i]]; ok && strings.EqualFold(t.Email, email) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTicketStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Ticket
	for _, id := range s.order {
		if t, ok := s.tickets[id]; ok && t.EventID == eventID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTicketStore) Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Ticket
	for _, id := range s.order {
		t, ok := s.tickets[id]
		if !ok || (filters.EventID != "" && filters.EventID != "ALL" && t.EventID != filters.EventID) {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(t.Name+t.Email+t.ID), strings.ToLower(filters.Query)) {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

func (s *memTicketStore) ToggleUsed(ctx context.Context, id string) (bool, error) {
	var used bool
	err := s.update(id, func(t *models.Ticket) error {
		t.Used = !t.Used
		used = t.Used
		return nil
	})
	return used, err
}

func (s *memTicketStore) Delete(ctx context.Context, id string) error {
	return s.update(id, func(t *models.Ticket) error {
		delete(s.tickets, id)
		return nil
	})
}

// memEventStore is an in-memory EventStore.
type memEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

func newMemEventStore(events ...*models.Event) *memEventStore {
	s := &memEventStore{events: make(map[string]*models.Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memEventStore) list(keep func(e *models.Event) bool) []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, e := range s.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memEventStore) ListPublished(ctx context.Context) ([]*models.Event, error) {
	return s.list(func(e *models.Event) bool { return e.IsPublished }), nil
}

func (s *memEventStore) ListAll(ctx context.Context) ([]*models.Event, error) {
	return s.list(func(e *models.Event) bool { return true }), nil
}

func (s *memEventStore) ListByOrganizer(ctx context.Context, organizerID string) ([]*models.Event, error) {
	return s.list(func(e *models.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *memEventStore) Create(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = time.Now().UTC()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *memEventStore) Update(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Date != nil {
		e.Date = patch.Date
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.PriceINR != nil {
		e.PriceINR = *patch.PriceINR
	}
	if patch.ImageURL != nil {
		e.ImageURL = *patch.ImageURL
	}
	if patch.IsPublished != nil {
		e.IsPublished = *patch.IsPublished
	}
	if patch.IsFeatured != nil {
		e.IsFeatured = *patch.IsFeatured
	}
	cp := *e
	return &cp, nil
}

func (s *memEventStore) SetOrganizer(ctx context.Context, id, organizerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.ErrEventNotFound
	}
	e.OrganizerID = organizerID
	return nil
}

// MockPaymentGateway is a testify mock of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) ConfirmCapture(ctx context.Context, orderID, paymentID string) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

type noArtwork struct{}

func (noArtwork) FetchArtwork(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("no artwork in tests")
}
