package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/jwt"
)

type StatusOutput struct {
	Enabled              bool
	PendingSetup         bool
	RemainingBackupCodes int
}

// Status reports the caller's enrollment state. Secrets and code material
// never leave through here.
func (s *Usecase) Status(ctx context.Context) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	factor, err := s.repoDB.GetSecondFactor(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return &StatusOutput{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	remaining, err := s.repoDB.CountBackupCodes(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count backup codes", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatusOutput{
		Enabled:              factor.Enabled,
		PendingSetup:         !factor.Enabled,
		RemainingBackupCodes: remaining,
	}, nil
}
