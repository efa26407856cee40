package session

import (
	"context"
	"time"

	"polykitchen/internal/domain"
)

// Session is a persisted admin login: the backend bearer token plus the
// user it was issued to.
type Session struct {
	ID        string
	Token     string
	User      domain.AdminUser
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions that expired before now and reports
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
