package db

import (
	"context"
	"time"
)

func (s *DB) ConsumeBackupCode(ctx context.Context, id, userID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeBackupCode")
	defer func() { s.endSpan(span, err) }()

	// the delete is the arbiter between racers holding the same plaintext
	const query = `DELETE FROM twofactor_backup_codes WHERE id = $1 AND user_id = $2`

	tag, err := s.conn.Exec(ctx, query, id, userID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredSessions")
	defer func() { s.endSpan(span, err) }()

	const query = `DELETE FROM twofactor_sessions WHERE expires_at <= $1`

	tag, err := s.conn.Exec(ctx, query, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
