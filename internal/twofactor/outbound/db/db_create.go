package db

import (
	"context"

	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

func (s *DB) CreateSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO twofactor_sessions (id, user_id, token, created_at, expires_at, verified, attempts)
		VALUES ($1, $2, $3, $4, $5, false, 0)`

	_, err = s.conn.Exec(ctx, query, in.ID, in.UserID, in.Token, in.CreatedAt, in.ExpiresAt)

	return s.mapError(err)
}
