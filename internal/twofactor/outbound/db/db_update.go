package db

import "context"

func (s *DB) EnableSecondFactor(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "EnableSecondFactor")
	defer func() { s.endSpan(span, err) }()

	// conditional flip: only one confirm can win
	const query = `
		UPDATE twofactor_second_factors
		SET enabled = true, updated_at = now()
		WHERE user_id = $1 AND enabled = false`

	tag, err := s.conn.Exec(ctx, query, userID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) IncrementSessionAttempts(ctx context.Context, sessionID int64) (_ int16, err error) {
	ctx, span := s.startSpan(ctx, "IncrementSessionAttempts")
	defer func() { s.endSpan(span, err) }()

	// charged before code evaluation; RETURNING makes the increment and the
	// read one atomic step
	const query = `
		UPDATE twofactor_sessions
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts`

	var attempts int16
	if err = s.conn.QueryRow(ctx, query, sessionID).Scan(&attempts); err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

func (s *DB) FinalizeSession(ctx context.Context, sessionID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "FinalizeSession")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE twofactor_sessions
		SET verified = true
		WHERE id = $1 AND verified = false`

	tag, err := s.conn.Exec(ctx, query, sessionID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
