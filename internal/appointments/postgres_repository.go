package appointments

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

// slotIndexName is the partial unique index enforcing one non-cancelled
// appointment per (date, time). A violation means a concurrent create won
// the slot.
const slotIndexName = "appointments_active_slot_idx"

const uniqueViolation = "23505"

// DB is the pgx surface the repository needs; satisfied by *pgxpool.Pool
// and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mocked pool for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{pool: db}
}

const appointmentColumns = `id, client_name, client_email, client_phone, appointment_date,
		appointment_time, service_type, status, payment_status, payment_id,
		amount, notes, created_at, updated_at`

// Create inserts a new row. The partial unique index performs the
// check-then-create atomically; its violation maps to ErrSlotTaken.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO appointments (
			id, client_name, client_email, client_phone, appointment_date,
			appointment_time, service_type, status, payment_status, amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	err := r.pool.QueryRow(ctx, query,
		id,
		req.ClientName,
		req.ClientEmail,
		req.ClientPhone,
		req.Date.Time(),
		req.Time,
		req.ServiceType,
		string(StatusPending),
		string(PaymentPending),
		req.Amount,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == slotIndexName {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:            id.String(),
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		Date:          req.Date,
		Time:          req.Time,
		ServiceType:   req.ServiceType,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Amount:        req.Amount,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// GetByID fetches an appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// List returns appointments matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.Time())
		query += fmt.Sprintf(" AND appointment_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.Time())
		query += fmt.Sprintf(" AND appointment_date <= $%d", len(args))
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
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate failed: %w", err)
	}
	return out, nil
}

// Update applies admin edits.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE appointments SET
			status = COALESCE($2, status),
			notes = COALESCE($3, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, status, req.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	return appt, nil
}

// Delete removes an appointment.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedTimes returns the times of non-cancelled appointments on a date.
func (r *PostgresRepository) BookedTimes(ctx context.Context, date calendar.Date) ([]string, error) {
	query := `
		SELECT appointment_time FROM appointments
		WHERE appointment_date = $1 AND status <> $2
		ORDER BY appointment_time
	`
	rows, err := r.pool.Query(ctx, query, date.Time(), string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times failed: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate failed: %w", err)
	}
	return times, nil
}

// CountActive counts non-cancelled appointments on a date.
func (r *PostgresRepository) CountActive(ctx context.Context, date calendar.Date) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM appointments WHERE appointment_date = $1 AND status <> $2`,
		date.Time(), string(StatusCancelled),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: count failed: %w", err)
	}
	return count, nil
}

// AttachPayment links a payment to an appointment still awaiting one. The
// WHERE clause is the duplicate guard: zero rows means the appointment is
// missing or already paid.
func (r *PostgresRepository) AttachPayment(ctx context.Context, id, paymentID string) (*Appointment, error) {
	query := `
		UPDATE appointments SET
			payment_id = $2,
			payment_status = $3,
			updated_at = now()
		WHERE id = $1 AND payment_status = $4 AND payment_id IS NULL
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, paymentID, string(PaymentPaid), string(PaymentPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, ErrPaymentAlreadyLinked
		}
		return nil, fmt.Errorf("appointments: attach payment failed: %w", err)
	}
	return appt, nil
}

// ApplyPaymentOutcome records the verify/reject verdict on the appointment.
func (r *PostgresRepository) ApplyPaymentOutcome(ctx context.Context, id string, status Status, paymentStatus PaymentStatus) (*Appointment, error) {
	query := `
		UPDATE appointments SET
			status = $2,
			payment_status = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, string(status), string(paymentStatus)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: apply payment outcome failed: %w", err)
	}
	return appt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		appt      Appointment
		date      time.Time
		paymentID sql.NullString
		notes     sql.NullString
	)
	if err := row.Scan(
		&appt.ID,
		&appt.ClientName,
		&appt.ClientEmail,
		&appt.ClientPhone,
		&date,
		&appt.Time,
		&appt.ServiceType,
		&appt.Status,
		&appt.PaymentStatus,
		&paymentID,
		&appt.Amount,
		&notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.Date = calendar.DateOf(date)
	appt.PaymentID = paymentID.String
	appt.Notes = notes.String
	return &appt, nil
}
