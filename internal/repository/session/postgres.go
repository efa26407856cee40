package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"polykitchen/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, s Session) error {
	user, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	const q = `
INSERT INTO admin_sessions (id, token, user_payload, expires_at)
VALUES ($1, $2, $3, $4)
`
	_, err = r.pool.Exec(ctx, q, s.ID, s.Token, user, s.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*Session, error) {
	const q = `
SELECT id::text, token, user_payload, created_at, expires_at
FROM admin_sessions
WHERE id = $1
LIMIT 1
`
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	var out Session
	var user []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&out.ID,
		&out.Token,
		&user,
		&out.CreatedAt,
		&out.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(user) > 0 {
		if err := json.Unmarshal(user, &out.User); err != nil {
			return nil, fmt.Errorf("decode session user: %w", err)
		}
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
