package session

import (
	"context"
	"sync"
	"time"

	"polykitchen/internal/domain"
)

type memoryRepo struct {
	mu   sync.RWMutex
	rows map[string]Session
}

// NewMemory keeps sessions in process memory. They do not survive a restart.
func NewMemory() Repository {
	return &memoryRepo{rows: make(map[string]Session)}
}

func (r *memoryRepo) Create(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.rows[s.ID] = s
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memoryRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.rows {
		if !s.ExpiresAt.After(now) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Ping(context.Context) error { return nil }
