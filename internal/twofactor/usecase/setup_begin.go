package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/mfa"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

type SetupBeginInput struct {
	CurrentPassword string `validate:"required"`
}

type SetupBeginOutput struct {
	Secret      string
	URI         string
	QRCode      string
	BackupCodes []string
}

// SetupBegin provisions a fresh TOTP secret for the caller. The enrollment
// stays disabled until SetupConfirm proves the authenticator works; running
// SetupBegin again before that overwrites the pending secret and codes.
func (s *Usecase) SetupBegin(ctx context.Context, in SetupBeginInput) (*SetupBeginOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupBegin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.requireAuthWithPassword(ctx, in.CurrentPassword)
	if err != nil {
		return nil, err
	}

	existing, err := s.repoDB.GetSecondFactor(ctx, cred.UserID)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get second factor", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if existing != nil && existing.Enabled {
		return nil, goerror.NewBusiness("two-factor is already enabled", goerror.CodeConflict)
	}

	secret, uri, err := s.totp.Generate(cred.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	encryptedSecret, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{
		UserID:  cred.UserID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
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

	factor := entity.SecondFactor{
		UserID:    cred.UserID,
		Secret:    encryptedSecret,
		Enabled:   false,
		UpdatedAt: s.clock.Now(),
	}

	if err := s.repoDB.ReplaceSecondFactor(ctx, factor, codeRows); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace second factor", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qrImage, err := s.qr.DataURI(uri, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render provisioning qr code", "user_id", cred.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SetupBeginOutput{
		Secret:      secret,
		URI:         uri,
		QRCode:      qrImage,
		BackupCodes: plainCodes,
	}, nil
}
