package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

type SessionIssueInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type SessionIssueOutput struct {
	SessionToken string
	ExpiresAt    time.Time
}

// SessionIssue opens a pending second-factor session after the primary
// credential has already been verified by the caller. The returned token is
// an opaque handle; only its HMAC hash is stored, and the token itself
// encodes nothing about the user.
func (s *Usecase) SessionIssue(ctx context.Context, in SessionIssueInput) (*SessionIssueOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionIssue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	factor, err := s.repoDB.GetSecondFactor(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "second factor not provisioned", "user_id", in.UserID)
		return nil, goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !factor.Enabled {
		return nil, goerror.NewBusiness("two-factor is not provisioned", goerror.CodeConflict)
	}

	token := s.oid.Generate()
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.sessionTTL())

	session := entity.Session{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		Token:     string(tokenHash),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.repoDB.CreateSession(ctx, session); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionIssueOutput{
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}, nil
}

// sessionTTL reads the configured session lifetime, clamped to ten minutes.
func (s *Usecase) sessionTTL() time.Duration {
	ttl := s.cfg.GetMinute("modules.twofactor.session_ttl_minutes")
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	if ttl > 10*time.Minute {
		ttl = 10 * time.Minute
	}

	return ttl
}
