// Package session keeps admin logins: the backend bearer token is stored
// server-side and the browser only holds a signed cookie naming it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
	sessionrepo "polykitchen/internal/repository/session"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrExpired          = errors.New("session expired")
)

// Session is an authenticated admin login.
type Session struct {
	ID        string
	Token     string
	User      domain.AdminUser
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Credentials is the context passed along with admin backend calls.
func (s *Session) Credentials() backend.Credentials {
	return backend.Credentials{Token: s.Token}
}

// Authenticator is the backend surface the manager depends on.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
	Verify(ctx context.Context, cred backend.Credentials) error
}

// Manager creates, resolves and ends admin sessions.
type Manager struct {
	auth   Authenticator
	repo   sessionrepo.Repository
	ttl    time.Duration
	now    func() time.Time
	logger logrus.FieldLogger
}

func NewManager(auth Authenticator, repo sessionrepo.Repository, ttl time.Duration, logger logrus.FieldLogger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{auth: auth, repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

// Login exchanges credentials with the backend and persists the session.
// Backend errors are returned untouched so their message can be shown.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	res, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	s := sessionrepo.Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		User:      res.User,
		CreatedAt: now,
		ExpiresAt: m.expiry(res.Token, now),
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	m.logger.WithFields(logrus.Fields{"user": res.User.Username, "expires_at": s.ExpiresAt}).Info("admin logged in")
	return fromRecord(s), nil
}

// Resolve loads a live session by id.
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	rec, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !rec.ExpiresAt.After(m.now()) {
		m.drop(ctx, id)
		return nil, ErrExpired
	}
	return fromRecord(*rec), nil
}

// Verify asks the backend whether the token is still accepted. Any failure
// ends the session.
func (m *Manager) Verify(ctx context.Context, s *Session) error {
	if err := m.auth.Verify(ctx, s.Credentials()); err != nil {
		m.logger.WithError(err).WithField("user", s.User.Username).Info("session verification failed")
		m.drop(ctx, s.ID)
		return ErrExpired
	}
	return nil
}

// Invalidate ends a session after the backend refused its token.
func (m *Manager) Invalidate(ctx context.Context, s *Session) {
	m.logger.WithField("user", s.User.Username).Info("session invalidated")
	m.drop(ctx, s.ID)
}

// Logout ends the session named by id. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Janitor deletes expired sessions every interval until ctx is done.
func (m *Manager) Janitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.repo.DeleteExpired(ctx, m.now())
			if err != nil {
				m.logger.WithError(err).Warn("purge expired sessions")
				continue
			}
			if n > 0 {
				m.logger.WithField("count", n).Debug("purged expired sessions")
			}
		}
	}
}

func (m *Manager) drop(ctx context.Context, id string) {
	if err := m.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		m.logger.WithError(err).Warn("delete session")
	}
}

// expiry reads the exp claim of the backend token when it is a JWT and
// falls back to the configured lifetime otherwise.
func (m *Manager) expiry(token string, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		if exp := claims.ExpiresAt.Time.UTC(); exp.After(now) {
			return exp
		}
	}
	return now.Add(m.ttl)
}

func fromRecord(r sessionrepo.Session) *Session {
	return &Session{
		ID:        r.ID,
		Token:     r.Token,
		User:      r.User,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}
