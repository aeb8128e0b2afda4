package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
)

type DisableInput struct {
	CurrentPassword string `validate:"required"`
}

// Disable tears down the caller's enrollment: the secret row, every backup
// code and every outstanding session go away in one transaction. A later
// re-enable starts from a fresh secret.
func (s *Usecase) Disable(ctx context.Context, in DisableInput) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cred, err := s.requireAuthWithPassword(ctx, in.CurrentPassword)
	if err != nil {
		return err
	}

	if _, err := s.repoDB.GetSecondFactor(ctx, cred.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "second factor not provisioned", "user_id", cred.UserID)
			return goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
		}

		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", cred.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.DeleteSecondFactor(ctx, cred.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete second factor", "user_id", cred.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishDisabled(ctx, SecondFactorEvent{
		UserID: cred.UserID,
		At:     s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish disabled event", "user_id", cred.UserID, "error", err)
	}

	return nil
}
