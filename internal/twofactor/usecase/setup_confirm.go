package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/jwt"
)

type SetupConfirmInput struct {
	Code string `validate:"required,len=6,numeric"`
}

// SetupConfirm flips a pending enrollment to enabled once the caller proves
// the authenticator produces valid codes for the stored secret.
func (s *Usecase) SetupConfirm(ctx context.Context, in SetupConfirmInput) error {
	ctx, span := s.startSpan(ctx, "SetupConfirm")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	factor, err := s.repoDB.GetSecondFactor(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "second factor not provisioned", "user_id", clm.UserID)
		return goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if factor.Enabled {
		return goerror.NewBusiness("two-factor is already enabled", goerror.CodeConflict)
	}

	secret, err := s.decryptSecret(ctx, clm.UserID, factor.Secret)
	if err != nil {
		return err
	}

	if !s.totp.Validate(in.Code, secret, s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code during setup confirm", "user_id", clm.UserID)
		return goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	enabled, err := s.repoDB.EnableSecondFactor(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo enable second factor", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !enabled {
		// another confirm won, or the row vanished underneath us
		slog.WarnContext(ctx, "second factor enable lost the race", "user_id", clm.UserID)
		return goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}

	s.publishEnabled(ctx, clm.UserID)

	return nil
}

// publishEnabled is best-effort; enrollment already committed.
func (s *Usecase) publishEnabled(ctx context.Context, userID int64) {
	if err := s.repoMessaging.PublishEnabled(ctx, SecondFactorEvent{
		UserID: userID,
		At:     s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish enabled event", "user_id", userID, "error", err)
	}
}
