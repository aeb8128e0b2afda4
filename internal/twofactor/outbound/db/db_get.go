package db

import (
	"context"

	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

func (s *DB) GetUserCredential(ctx context.Context, userID int64) (_ *entity.UserCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredential")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT u.id, u.email, c.password
		FROM users u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE u.id = $1 AND u.deleted_at IS NULL`

	var out entity.UserCredential
	if err = s.conn.QueryRow(ctx, query, userID).Scan(&out.UserID, &out.Email, &out.Password); err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) GetSecondFactor(ctx context.Context, userID int64) (_ *entity.SecondFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetSecondFactor")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, secret, enabled, updated_at
		FROM twofactor_second_factors
		WHERE user_id = $1`

	var out entity.SecondFactor
	if err = s.conn.QueryRow(ctx, query, userID).
		Scan(&out.UserID, &out.Secret, &out.Enabled, &out.UpdatedAt); err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

func (s *DB) GetBackupCodes(ctx context.Context, userID int64) (_ []entity.BackupCode, err error) {
	ctx, span := s.startSpan(ctx, "GetBackupCodes")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, code
		FROM twofactor_backup_codes
		WHERE user_id = $1
		ORDER BY id`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var out []entity.BackupCode
	for rows.Next() {
		var bc entity.BackupCode
		if err = rows.Scan(&bc.ID, &bc.UserID, &bc.Code); err != nil {
			return nil, s.mapError(err)
		}
		out = append(out, bc)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) CountBackupCodes(ctx context.Context, userID int64) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountBackupCodes")
	defer func() { s.endSpan(span, err) }()

	const query = `SELECT COUNT(*) FROM twofactor_backup_codes WHERE user_id = $1`

	var count int
	if err = s.conn.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

func (s *DB) GetSessionByToken(ctx context.Context, tokenHash string) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByToken")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, token, created_at, expires_at, verified, attempts
		FROM twofactor_sessions
		WHERE token = $1`

	var out entity.Session
	if err = s.conn.QueryRow(ctx, query, tokenHash).
		Scan(&out.ID, &out.UserID, &out.Token, &out.CreatedAt, &out.ExpiresAt, &out.Verified, &out.Attempts); err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}
