package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the pgx surface the repository needs; satisfied by *pgxpool.Pool
// and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores calendar settings in the relational database,
// one row per calendar date.
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("calendar: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mocked pool for tests.
func NewPostgresRepositoryWithDB(db DB) *PostgresRepository {
	return &PostgresRepository{pool: db}
}

// Upsert inserts or replaces the setting for the request's date.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertSettingRequest) (*Setting, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hours, err := json.Marshal(req.Hours)
	if err != nil {
		return nil, fmt.Errorf("calendar: marshal hours: %w", err)
	}

	query := `
		INSERT INTO calendar_settings (setting_date, is_available, reason, hours, max_appointments, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (setting_date) DO UPDATE SET
			is_available = EXCLUDED.is_available,
			reason = EXCLUDED.reason,
			hours = EXCLUDED.hours,
			max_appointments = EXCLUDED.max_appointments,
			updated_at = now()
		RETURNING updated_at
	`
	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		req.Date.Time(),
		req.IsAvailable,
		req.Reason,
		hours,
		req.MaxAppointments,
	).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("calendar: upsert failed: %w", err)
	}

	return &Setting{
		Date:            req.Date,
		IsAvailable:     req.IsAvailable,
		Reason:          req.Reason,
		Hours:           req.Hours,
		MaxAppointments: req.MaxAppointments,
		UpdatedAt:       updatedAt,
	}, nil
}

// Get fetches the setting for a date.
func (r *PostgresRepository) Get(ctx context.Context, date Date) (*Setting, error) {
	query := `
		SELECT setting_date, is_available, reason, hours, max_appointments, updated_at
		FROM calendar_settings
		WHERE setting_date = $1
	`
	setting, err := scanSetting(r.pool.QueryRow(ctx, query, date.Time()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("calendar: select failed: %w", err)
	}
	return setting, nil
}

// GetRange fetches settings with dates in [start, end].
func (r *PostgresRepository) GetRange(ctx context.Context, start, end Date) ([]*Setting, error) {
	query := `
		SELECT setting_date, is_available, reason, hours, max_appointments, updated_at
		FROM calendar_settings
		WHERE setting_date BETWEEN $1 AND $2
		ORDER BY setting_date
	`
	rows, err := r.pool.Query(ctx, query, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("calendar: select range failed: %w", err)
	}
	defer rows.Close()

	var out []*Setting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("calendar: scan failed: %w", err)
		}
		out = append(out, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calendar: iterate failed: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSetting(row rowScanner) (*Setting, error) {
	var (
		setting Setting
		date    time.Time
		hours   []byte
	)
	if err := row.Scan(&date, &setting.IsAvailable, &setting.Reason, &hours, &setting.MaxAppointments, &setting.UpdatedAt); err != nil {
		return nil, err
	}
	setting.Date = DateOf(date)
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &setting.Hours); err != nil {
			return nil, fmt.Errorf("unmarshal hours: %w", err)
		}
	}
	return &setting, nil
}
