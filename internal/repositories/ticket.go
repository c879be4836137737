package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"planora-ticketing/internal/models"
)

const ticketColumns = `id, name, email, phone, college, ieee, event_id, payment_id,
	razorpay_order_id, razorpay_signature, amount_paid, status, used, used_at,
	checked_in_at, qr, created_at`

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// TicketRepository handles ticket data operations
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var (
		t           models.Ticket
		eventID     sql.NullString
		status      string
		usedAt      sql.NullTime
		checkedInAt sql.NullTime
	)

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Email,
		&t.Phone,
		&t.College,
		&t.IEEE,
		&eventID,
		&t.PaymentID,
		&t.RazorpayOrderID,
		&t.RazorpaySignature,
		&t.AmountPaid,
		&status,
		&t.Used,
		&usedAt,
		&checkedInAt,
		&t.QR,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.EventID = eventID.String
	t.Status = models.TicketStatus(status)
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	if checkedInAt.Valid {
		t.CheckedInAt = &checkedInAt.Time
	}
	return &t, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// FindByPaymentRef returns the live ticket for a payment reference.
func (r *TicketRepository) FindByPaymentRef(ctx context.Context, paymentID string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE payment_id = $1 AND status <> 'cancelled'
		ORDER BY created_at ASC
		LIMIT 1`

	t, err := scanTicket(r.db.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket by payment: %w", err)
	}
	return t, nil
}

// InsertPending stores a new ticket in pending status. A concurrent insert
// for the same payment surfaces as models.ErrDuplicatePayment.
func (r *TicketRepository) InsertPending(ctx context.Context, t *models.Ticket) error {
	var eventID any
	if t.EventID != "" {
		eventID = t.EventID
	}

	query := `
		INSERT INTO tickets (id, name, email, phone, college, ieee, event_id, payment_id,
			razorpay_order_id, razorpay_signature, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		t.ID,
		t.Name,
		t.Email,
		t.Phone,
		t.College,
		t.IEEE,
		eventID,
		t.PaymentID,
		t.RazorpayOrderID,
		t.RazorpaySignature,
		t.AmountPaid,
		string(models.TicketPending),
		now,
	).Scan(&t.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	t.Status = models.TicketPending
	return nil
}

// AttachArtifact stores the QR data URL on the ticket.
func (r *TicketRepository) AttachArtifact(ctx context.Context, id, qr string) error {
	return r.execOne(ctx, "attach qr", `UPDATE tickets SET qr = $2 WHERE id = $1`, id, qr)
}

// MarkIssued moves a pending ticket to issued.
func (r *TicketRepository) MarkIssued(ctx context.Context, id string) error {
	return r.execOne(ctx, "mark issued",
		`UPDATE tickets SET status = 'issued' WHERE id = $1 AND status = 'pending'`, id)
}

// MarkFailed moves a pending ticket to failed.
func (r *TicketRepository) MarkFailed(ctx context.Context, id string) error {
	return r.execOne(ctx, "mark failed",
		`UPDATE tickets SET status = 'failed' WHERE id = $1 AND status = 'pending'`, id)
}

// MarkRedeemed admits an issued, unused ticket exactly once. The guard lives
// in the WHERE clause so two concurrent scans cannot both succeed.
func (r *TicketRepository) MarkRedeemed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE tickets
		SET used = TRUE, used_at = $2, checked_in_at = $2, status = 'redeemed'
		WHERE id = $1 AND used = FALSE AND status = 'issued'`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to redeem ticket: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Used {
		return models.ErrTicketAlreadyUsed
	}
	return models.ErrTicketNotRedeemable
}

// GetByID retrieves a ticket by its id
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	t, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// ListByEmail returns the most recent tickets registered to an email,
// matched case-insensitively.
func (r *TicketRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE LOWER(email) = LOWER($1)
		ORDER BY created_at DESC
		LIMIT $2`

	tickets, err := r.queryTickets(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets by email: %w", err)
	}
	return tickets, nil
}

// ListByEvent returns the roster of an event, newest first.
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1
		ORDER BY created_at DESC`

	tickets, err := r.queryTickets(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets by event: %w", err)
	}
	return tickets, nil
}

// Search filters tickets by event and by a case-insensitive fragment of the
// id or email.
func (r *TicketRepository) Search(ctx context.Context, filters models.TicketSearch) ([]*models.Ticket, error) {
	filters.Normalize()

	var (
		conditions []string
		args       []any
	)
	if filters.EventID != "" && filters.EventID != "ALL" {
		args = append(args, filters.EventID)
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		args = append(args, "%"+q+"%")
		conditions = append(conditions, fmt.Sprintf("(id::text ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filters.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	tickets, err := r.queryTickets(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tickets: %w", err)
	}
	return tickets, nil
}

// ToggleUsed flips the check-in flag from the admin roster and reports the
// new value. Undoing a check-in returns a redeemed ticket to issued.
func (r *TicketRepository) ToggleUsed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE tickets
		SET used = NOT used,
			used_at = CASE WHEN used THEN NULL ELSE NOW() END,
			checked_in_at = CASE WHEN used THEN NULL ELSE NOW() END,
			status = CASE
				WHEN used AND status = 'redeemed' THEN 'issued'
				WHEN NOT used AND status = 'issued' THEN 'redeemed'
				ELSE status
			END
		WHERE id = $1
		RETURNING used`

	var used bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, models.ErrTicketNotFound
		}
		return false, fmt.Errorf("failed to toggle ticket: %w", err)
	}
	return used, nil
}

// Delete removes a ticket
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete ticket", `DELETE FROM tickets WHERE id = $1`, id)
}

func (r *TicketRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrTicketNotFound
	}
	return nil
}
