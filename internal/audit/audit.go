// Package audit keeps an immutable trail of outbound client communication.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit record.
type EventType string

const (
	// EventEmailSent is logged when a notification email goes out.
	EventEmailSent EventType = "notify.email_sent"
	// EventEmailFailed is logged when a notification email could not be delivered.
	EventEmailFailed EventType = "notify.email_failed"
)

// Event is an immutable notification audit record.
type Event struct {
	ID            string          `json:"id"`
	EventType     EventType       `json:"event_type"`
	Kind          string          `json:"kind"`
	Recipient     string          `json:"recipient"`
	AppointmentID string          `json:"appointment_id,omitempty"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Service persists audit events.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service. A nil db disables recording.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record writes an audit event. Missing ID and CreatedAt are filled in.
func (s *Service) Record(ctx context.Context, event Event) error {
	if s == nil || s.db == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO notification_audit_events (
			id, event_type, kind, recipient, appointment_id, payment_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Kind,
		event.Recipient,
		nullString(event.AppointmentID),
		nullString(event.PaymentID),
		nullableJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
