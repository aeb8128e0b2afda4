package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
)

type BackupCodeRegenerateInput struct {
	CurrentPassword string `validate:"required"`
}

type BackupCodeRegenerateOutput struct {
	Codes []string
}

// BackupCodeRegenerate replaces the caller's entire backup code set. Old
// codes stop working the moment the new batch lands; the plaintext batch is
// returned once and never again.
func (s *Usecase) BackupCodeRegenerate(ctx context.Context, in BackupCodeRegenerateInput) (*BackupCodeRegenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "BackupCodeRegenerate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.requireAuthWithPassword(ctx, in.CurrentPassword)
	if err != nil {
		return nil, err
	}

	factor, err := s.repoDB.GetSecondFactor(ctx, cred.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "second factor not provisioned", "user_id", cred.UserID)
		return nil, goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !factor.Enabled {
		return nil, goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}

	plainCodes, err := s.backupCodes.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeRows, err := s.hashBackupCodes(ctx, cred.UserID, plainCodes)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.ReplaceBackupCodes(ctx, cred.UserID, codeRows); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace backup codes", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishBackupCodesRotated(ctx, SecondFactorEvent{
		UserID: cred.UserID,
		At:     s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish backup codes rotated event", "user_id", cred.UserID, "error", err)
	}

	return &BackupCodeRegenerateOutput{Codes: plainCodes}, nil
}
