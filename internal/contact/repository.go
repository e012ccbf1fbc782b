package contact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for contact message storage
type Repository interface {
	Create(ctx context.Context, req *CreateMessageRequest) (*Message, error)
	GetByID(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context, limit, offset int) ([]*Message, error)
}

// InMemoryRepository is an in-memory Repository for tests and dev mode.
type InMemoryRepository struct {
	mu       sync.RWMutex
	messages map[string]*Message
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		messages: make(map[string]*Message),
	}
}

// Create stores a new contact message
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateMessageRequest) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.messages[msg.ID] = msg
	r.mu.Unlock()

	copied := *msg
	return &copied, nil
}

// GetByID retrieves a contact message by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

// List returns contact messages, newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit, offset int) ([]*Message, error) {
	r.mu.RLock()
	all := make([]*Message, 0, len(r.messages))
	for _, msg := range r.messages {
		copied := *msg
		all = append(all, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(all) {
			return nil, nil
		}
		all = all[offset:]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
