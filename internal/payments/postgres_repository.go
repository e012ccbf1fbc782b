package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usamabutt6800/mindwell-backend/internal/calendar"
)

// appointmentIndexName is the unique index enforcing one payment per
// appointment. A violation means a concurrent submission won.
const appointmentIndexName = "payments_appointment_id_key"

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DB is the pgx surface the repository needs; satisfied by *pgxpool.Pool
// and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores payments in the relational database. Writes
// that touch both the payment and its appointment run in one transaction,
// so a failed lifecycle transition leaves no partial state.
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("payments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mocked pool for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{pool: db}
}

const paymentColumns = `id, appointment_id, client_name, client_email, client_phone,
		amount, currency, payment_method, transaction_id, transaction_date,
		receipt_url, receipt_handle, status, verified_by, verified_at,
		notes, reject_reason, created_at, updated_at`

// Create inserts the payment and attaches it to its appointment in one
// transaction. The unique index on appointment_id performs the duplicate
// check atomically; the conditional appointment update guards the attach.
func (r *PostgresRepository) Create(ctx context.Context, payment *Payment) (*Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("payments: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored := *payment
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.Status = StatusPending

	insert := `
		INSERT INTO payments (
			id, appointment_id, client_name, client_email, client_phone,
			amount, currency, payment_method, transaction_id, transaction_date,
			receipt_url, receipt_handle, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, insert,
		stored.ID,
		stored.AppointmentID,
		stored.ClientName,
		stored.ClientEmail,
		stored.ClientPhone,
		stored.Amount,
		stored.Currency,
		stored.Method,
		stored.TransactionID,
		stored.TransactionAt.Time(),
		stored.ReceiptURL,
		stored.ReceiptHandle,
		string(stored.Status),
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == uniqueViolation && pgErr.ConstraintName == appointmentIndexName {
				return nil, ErrDuplicatePayment
			}
			// The appointment_id foreign key fires before the attach runs.
			if pgErr.Code == foreignKeyViolation {
				return nil, ErrAppointmentNotFound
			}
		}
		return nil, fmt.Errorf("payments: insert failed: %w", err)
	}

	attach := `
		UPDATE appointments SET
			payment_id = $2,
			payment_status = 'paid',
			updated_at = now()
		WHERE id = $1 AND payment_status = 'pending' AND payment_id IS NULL
	`
	tag, err := tx.Exec(ctx, attach, stored.AppointmentID, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("payments: attach failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, stored.AppointmentID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("payments: attach check failed: %w", err)
		}
		if !exists {
			return nil, ErrAppointmentNotFound
		}
		return nil, ErrDuplicatePayment
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("payments: commit failed: %w", err)
	}
	return &stored, nil
}

// GetByID fetches a payment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payments: select failed: %w", err)
	}
	return payment, nil
}

// GetByAppointmentID fetches the payment linked to an appointment.
func (r *PostgresRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE appointment_id = $1`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, appointmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payments: select by appointment failed: %w", err)
	}
	return payment, nil
}

// List returns payments matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("payments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("payments: scan failed: %w", err)
		}
		out = append(out, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments: iterate failed: %w", err)
	}
	return out, nil
}

// MarkVerified flips the payment to verified and confirms the appointment,
// in one transaction. The status guard in the UPDATE makes a second verify
// a no-op that surfaces ErrAlreadyVerified.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id, actor, notes string) (*Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("payments: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	update := `
		UPDATE payments SET
			status = 'verified',
			verified_by = $2,
			verified_at = now(),
			notes = $3,
			updated_at = now()
		WHERE id = $1 AND status <> 'verified'
		RETURNING ` + paymentColumns
	payment, err := scanPayment(tx.QueryRow(ctx, update, id, actor, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var status string
			if scanErr := tx.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&status); scanErr != nil {
				if errors.Is(scanErr, pgx.ErrNoRows) {
					return nil, ErrNotFound
				}
				return nil, fmt.Errorf("payments: verify check failed: %w", scanErr)
			}
			return nil, ErrAlreadyVerified
		}
		return nil, fmt.Errorf("payments: verify failed: %w", err)
	}

	confirm := `
		UPDATE appointments SET
			status = 'confirmed',
			payment_status = 'verified',
			updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, confirm, payment.AppointmentID); err != nil {
		return nil, fmt.Errorf("payments: confirm appointment failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("payments: commit failed: %w", err)
	}
	return payment, nil
}

// MarkRejected flips the payment to rejected and cancels the appointment,
// in one transaction.
func (r *PostgresRepository) MarkRejected(ctx context.Context, id, actor, reason string) (*Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("payments: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	update := `
		UPDATE payments SET
			status = 'rejected',
			verified_by = $2,
			verified_at = now(),
			reject_reason = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + paymentColumns
	payment, err := scanPayment(tx.QueryRow(ctx, update, id, actor, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payments: reject failed: %w", err)
	}

	cancel := `
		UPDATE appointments SET
			status = 'cancelled',
			payment_status = 'failed',
			updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, cancel, payment.AppointmentID); err != nil {
		return nil, fmt.Errorf("payments: cancel appointment failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("payments: commit failed: %w", err)
	}
	return payment, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var (
		payment       Payment
		transactionAt time.Time
		verifiedBy    sql.NullString
		verifiedAt    sql.NullTime
		notes         sql.NullString
		rejectReason  sql.NullString
	)
	if err := row.Scan(
		&payment.ID,
		&payment.AppointmentID,
		&payment.ClientName,
		&payment.ClientEmail,
		&payment.ClientPhone,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.TransactionID,
		&transactionAt,
		&payment.ReceiptURL,
		&payment.ReceiptHandle,
		&payment.Status,
		&verifiedBy,
		&verifiedAt,
		&notes,
		&rejectReason,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	payment.TransactionAt = calendar.DateOf(transactionAt)
	payment.VerifiedBy = verifiedBy.String
	if verifiedAt.Valid {
		payment.VerifiedAt = &verifiedAt.Time
	}
	payment.Notes = notes.String
	payment.RejectReason = rejectReason.String
	return &payment, nil
}
