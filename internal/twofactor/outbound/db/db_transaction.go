package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

func (s *DB) ReplaceSecondFactor(ctx context.Context, factor entity.SecondFactor, codes []entity.BackupCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceSecondFactor")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	const upsertFactor = `
		INSERT INTO twofactor_second_factors (user_id, secret, enabled, updated_at)
		VALUES ($1, $2, false, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET secret = EXCLUDED.secret, enabled = false, updated_at = EXCLUDED.updated_at`

	if _, err = tx.Exec(ctx, upsertFactor, factor.UserID, factor.Secret, factor.UpdatedAt); err != nil {
		return s.mapError(err)
	}

	if err = s.replaceBackupCodesTx(ctx, tx, factor.UserID, codes); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) ReplaceBackupCodes(ctx context.Context, userID int64, codes []entity.BackupCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceBackupCodes")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if err = s.replaceBackupCodesTx(ctx, tx, userID, codes); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// DeleteSecondFactor removes the enrollment, every backup code and every
// outstanding session in one transaction.
func (s *DB) DeleteSecondFactor(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSecondFactor")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	for _, query := range []string{
		`DELETE FROM twofactor_sessions WHERE user_id = $1`,
		`DELETE FROM twofactor_backup_codes WHERE user_id = $1`,
		`DELETE FROM twofactor_second_factors WHERE user_id = $1`,
	} {
		if _, err = tx.Exec(ctx, query, userID); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) replaceBackupCodesTx(ctx context.Context, tx pgx.Tx, userID int64, codes []entity.BackupCode) error {
	if _, err := tx.Exec(ctx, `DELETE FROM twofactor_backup_codes WHERE user_id = $1`, userID); err != nil {
		return s.mapError(err)
	}

	const insertCode = `
		INSERT INTO twofactor_backup_codes (id, user_id, code)
		VALUES ($1, $2, $3)`

	for _, bc := range codes {
		if _, err := tx.Exec(ctx, insertCode, bc.ID, bc.UserID, bc.Code); err != nil {
			return s.mapError(err)
		}
	}

	return nil
}
