package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/clock"
	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/goroutine"
	"github.com/wicaksono/authstep/internal/pkg/hash"
	"github.com/wicaksono/authstep/internal/pkg/instrument"
	"github.com/wicaksono/authstep/internal/pkg/jwt"
	"github.com/wicaksono/authstep/internal/pkg/limiter"
	"github.com/wicaksono/authstep/internal/pkg/mfa"
	"github.com/wicaksono/authstep/internal/pkg/otp"
	"github.com/wicaksono/authstep/internal/pkg/qr"
	"github.com/wicaksono/authstep/internal/pkg/uid"
	"github.com/wicaksono/authstep/internal/pkg/validator"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
	"go.opentelemetry.io/otel/trace"
)

// SecondFactorEvent is published when a user's enrollment state changes.
type SecondFactorEvent struct {
	UserID int64
	At     time.Time
}

// BackupCodeUsedEvent is published when a backup code is consumed during
// session verification.
type BackupCodeUsedEvent struct {
	UserID    int64
	Remaining int
	At        time.Time
}

type repoMessaging interface {
	PublishEnabled(ctx context.Context, msg SecondFactorEvent) error
	PublishDisabled(ctx context.Context, msg SecondFactorEvent) error
	PublishBackupCodesRotated(ctx context.Context, msg SecondFactorEvent) error
	PublishBackupCodeUsed(ctx context.Context, msg BackupCodeUsedEvent) error
}

type repoDB interface {
	GetUserCredential(ctx context.Context, userID int64) (*entity.UserCredential, error)
	GetSecondFactor(ctx context.Context, userID int64) (*entity.SecondFactor, error)
	GetBackupCodes(ctx context.Context, userID int64) ([]entity.BackupCode, error)
	CountBackupCodes(ctx context.Context, userID int64) (int, error)
	GetSessionByToken(ctx context.Context, tokenHash string) (*entity.Session, error)

	CreateSession(ctx context.Context, in entity.Session) error

	ReplaceSecondFactor(ctx context.Context, factor entity.SecondFactor, codes []entity.BackupCode) error
	ReplaceBackupCodes(ctx context.Context, userID int64, codes []entity.BackupCode) error
	EnableSecondFactor(ctx context.Context, userID int64) (bool, error)
	IncrementSessionAttempts(ctx context.Context, sessionID int64) (int16, error)
	FinalizeSession(ctx context.Context, sessionID int64) (bool, error)

	ConsumeBackupCode(ctx context.Context, id, userID int64) (bool, error)
	DeleteSecondFactor(ctx context.Context, userID int64) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	argon2id      hash.Hash
	mfaEncryptor  mfa.Encryptor
	backupCodes   mfa.BackupCodeGenerator
	uid           uid.NumberID
	oid           uid.StringID
	totp          otp.OTP
	qr            qr.Generator
	clock         clock.Clocker
	limiter       limiter.Limiter
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	Argon2ID      hash.Hash
	MFAEncryptor  mfa.Encryptor
	BackupCodes   mfa.BackupCodeGenerator
	UID           uid.NumberID
	OID           uid.StringID
	Totp          otp.OTP
	QR            qr.Generator
	Clock         clock.Clocker
	Limiter       limiter.Limiter
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		argon2id:      dep.Argon2ID,
		mfaEncryptor:  dep.MFAEncryptor,
		backupCodes:   dep.BackupCodes,
		uid:           dep.UID,
		oid:           dep.OID,
		totp:          dep.Totp,
		qr:            dep.QR,
		clock:         dep.Clock,
		limiter:       dep.Limiter,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

// requireAuth returns the JWT claims or an unauthorized error, then loads
// and re-proves the caller's primary credential. Every state-changing
// operation on an enrollment demands a fresh password.
func (s *Usecase) requireAuthWithPassword(ctx context.Context, password string) (*entity.UserCredential, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	cred, err := s.repoDB.GetUserCredential(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user credential", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(cred.Password, password) {
		slog.WarnContext(ctx, "password re-proof failed", "user_id", cred.UserID)
		return nil, goerror.NewBusiness("invalid password", goerror.CodeUnauthorized)
	}

	return cred, nil
}

// decryptSecret unwraps the stored TOTP seed for userID.
func (s *Usecase) decryptSecret(ctx context.Context, userID int64, ciphertext []byte) (string, error) {
	plain, err := s.mfaEncryptor.Decrypt(ciphertext, mfa.Scope{
		UserID:  userID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return string(plain), nil
}

// hashBackupCodes argon2id-hashes a fresh plaintext batch into rows.
func (s *Usecase) hashBackupCodes(ctx context.Context, userID int64, plain []string) ([]entity.BackupCode, error) {
	rows := make([]entity.BackupCode, 0, len(plain))
	for _, code := range plain {
		h, err := s.argon2id.Hash(mfa.NormalizeBackupCode(code))
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash backup code", "user_id", userID, "error", err)
			return nil, goerror.NewServer(err)
		}

		rows = append(rows, entity.BackupCode{
			ID:     s.uid.Generate(),
			UserID: userID,
			Code:   string(h),
		})
	}

	return rows, nil
}
