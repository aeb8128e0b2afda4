package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/limiter"
	"github.com/wicaksono/authstep/internal/pkg/mfa"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

type SessionVerifyInput struct {
	SessionToken string `validate:"required"`
	Code         string `validate:"required,min=6,max=32"`
}

type SessionVerifyOutput struct {
	UserID               int64
	Method               entity.Method
	RemainingBackupCodes int
}

// SessionVerify completes a pending second-factor session. A dead session,
// whether unknown, expired, already verified or attempt-capped, always
// yields the same generic error so callers cannot probe token validity.
//
// Six-digit codes are tried as TOTP first and fall back to backup code
// consumption; anything else can only be a backup code. Exactly one of two
// concurrent verifications with the same token wins.
func (s *Usecase) SessionVerify(ctx context.Context, in SessionVerifyInput) (*SessionVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "SessionVerify")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	session, err := s.loadLiveSession(ctx, in.SessionToken)
	if err != nil {
		return nil, err
	}

	if err := s.chargeAttempt(ctx, session); err != nil {
		return nil, err
	}

	method, err := s.proveCode(ctx, session.UserID, in.Code)
	if err != nil {
		return nil, err
	}

	won, err := s.repoDB.FinalizeSession(ctx, session.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo finalize session", "user_id", session.UserID, "session_id", session.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !won {
		slog.WarnContext(ctx, "session finalize lost the race", "user_id", session.UserID, "session_id", session.ID)
		return nil, goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limiter.AttemptKey("twofactor:verify", session.UserID)); err != nil {
			slog.WarnContext(ctx, "failed to reset verify limiter", "user_id", session.UserID, "error", err)
		}
	}

	remaining, err := s.repoDB.CountBackupCodes(ctx, session.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count backup codes", "user_id", session.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if method == entity.MethodBackupCode {
		s.publishBackupCodeUsed(ctx, session.UserID, remaining)
	}

	return &SessionVerifyOutput{
		UserID:               session.UserID,
		Method:               method,
		RemainingBackupCodes: remaining,
	}, nil
}

// loadLiveSession resolves the token hash to a session that is still within
// its lifetime and not yet verified.
func (s *Usecase) loadLiveSession(ctx context.Context, token string) (*entity.Session, error) {
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "error", err)
		return nil, goerror.NewServer(err)
	}

	session, err := s.repoDB.GetSessionByToken(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session not found")
		return nil, goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session by token", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if session.Verified || !now.Before(session.ExpiresAt) || now.Before(session.CreatedAt) {
		slog.WarnContext(ctx, "session is dead", "user_id", session.UserID, "session_id", session.ID)
		return nil, goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}

	return session, nil
}

// chargeAttempt burns one attempt before any code evaluation, in the store
// and in the shared limiter when one is configured. Racing requests each
// charge their own attempt, so the cap holds under concurrency.
func (s *Usecase) chargeAttempt(ctx context.Context, session *entity.Session) error {
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, limiter.AttemptKey("twofactor:verify", session.UserID))
		if err != nil {
			slog.WarnContext(ctx, "verify limiter unavailable", "user_id", session.UserID, "error", err)
		} else if !ok {
			slog.WarnContext(ctx, "verify limiter exhausted", "user_id", session.UserID)
			return goerror.NewBusiness("too many attempts", goerror.CodeTooManyRequest)
		}
	}

	attempts, err := s.repoDB.IncrementSessionAttempts(ctx, session.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment session attempts", "user_id", session.UserID, "session_id", session.ID, "error", err)
		return goerror.NewServer(err)
	}

	if attempts > s.sessionMaxAttempts() {
		slog.WarnContext(ctx, "session attempt cap reached", "user_id", session.UserID, "session_id", session.ID)
		return goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}

	return nil
}

// proveCode routes the submitted code to TOTP or backup code verification.
func (s *Usecase) proveCode(ctx context.Context, userID int64, code string) (entity.Method, error) {
	if isTOTPShaped(code) {
		ok, err := s.verifyTOTP(ctx, userID, code)
		if err != nil {
			return entity.MethodUnknown, err
		}
		if ok {
			return entity.MethodTOTP, nil
		}
	}

	ok, err := s.consumeBackupCode(ctx, userID, code)
	if err != nil {
		return entity.MethodUnknown, err
	}
	if ok {
		return entity.MethodBackupCode, nil
	}

	slog.WarnContext(ctx, "second factor code rejected", "user_id", userID)

	return entity.MethodUnknown, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
}

func isTOTPShaped(code string) bool {
	if len(code) != 6 {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}

func (s *Usecase) verifyTOTP(ctx context.Context, userID int64, code string) (bool, error) {
	factor, err := s.repoDB.GetSecondFactor(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "second factor row missing for live session", "user_id", userID)
		return false, goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	if !factor.Enabled {
		return false, goerror.NewBusiness("invalid or expired session", goerror.CodeUnauthorized)
	}

	secret, err := s.decryptSecret(ctx, userID, factor.Secret)
	if err != nil {
		return false, err
	}

	return s.totp.Validate(code, secret, s.clock.Now()), nil
}

// consumeBackupCode finds the hash-matching row and deletes it. The delete
// is the arbiter: of two racers holding the same plaintext, only the one
// whose delete removes the row succeeds.
func (s *Usecase) consumeBackupCode(ctx context.Context, userID int64, code string) (bool, error) {
	normalized := mfa.NormalizeBackupCode(code)
	if normalized == "" {
		return false, nil
	}

	codes, err := s.repoDB.GetBackupCodes(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get backup codes", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	var match *entity.BackupCode
	for i := range codes {
		if s.argon2id.Verify(codes[i].Code, normalized) {
			match = &codes[i]
			break
		}
	}

	if match == nil {
		return false, nil
	}

	consumed, err := s.repoDB.ConsumeBackupCode(ctx, match.ID, match.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume backup code", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	return consumed, nil
}

func (s *Usecase) sessionMaxAttempts() int16 {
	max := s.cfg.GetInt("modules.twofactor.session_max_attempts")
	if max <= 0 {
		max = 5
	}

	return int16(max)
}

// publishBackupCodeUsed is best-effort; the code is already burned.
func (s *Usecase) publishBackupCodeUsed(ctx context.Context, userID int64, remaining int) {
	if err := s.repoMessaging.PublishBackupCodeUsed(ctx, BackupCodeUsedEvent{
		UserID:    userID,
		Remaining: remaining,
		At:        s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish backup code used event", "user_id", userID, "error", err)
	}
}
