package calendar

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for calendar setting storage
type Repository interface {
	Upsert(ctx context.Context, req *UpsertSettingRequest) (*Setting, error)
	Get(ctx context.Context, date Date) (*Setting, error)
	GetRange(ctx context.Context, start, end Date) ([]*Setting, error)
}

// InMemoryRepository keeps settings in a map for tests and dev mode.
type InMemoryRepository struct {
	mu       sync.RWMutex
	settings map[Date]*Setting
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		settings: make(map[Date]*Setting),
	}
}

// Upsert creates or replaces the setting for the request's date.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertSettingRequest) (*Setting, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setting := &Setting{
		Date:            req.Date,
		IsAvailable:     req.IsAvailable,
		Reason:          req.Reason,
		Hours:           append([]HourRange(nil), req.Hours...),
		MaxAppointments: req.MaxAppointments,
		UpdatedAt:       time.Now().UTC(),
	}

	r.mu.Lock()
	r.settings[req.Date] = setting
	r.mu.Unlock()

	return setting, nil
}

// Get retrieves the setting for a date.
func (r *InMemoryRepository) Get(ctx context.Context, date Date) (*Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setting, ok := r.settings[date]
	if !ok {
		return nil, ErrSettingNotFound
	}
	return setting, nil
}

// GetRange retrieves settings with dates in [start, end], unordered.
func (r *InMemoryRepository) GetRange(ctx context.Context, start, end Date) ([]*Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Setting
	for d, s := range r.settings {
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
