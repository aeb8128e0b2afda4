package twofactor

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wicaksono/authstep/internal/pkg/clock"
	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/goroutine"
	"github.com/wicaksono/authstep/internal/pkg/hash"
	"github.com/wicaksono/authstep/internal/pkg/instrument"
	"github.com/wicaksono/authstep/internal/pkg/limiter"
	"github.com/wicaksono/authstep/internal/pkg/messaging"
	"github.com/wicaksono/authstep/internal/pkg/mfa"
	"github.com/wicaksono/authstep/internal/pkg/otp"
	"github.com/wicaksono/authstep/internal/pkg/qr"
	"github.com/wicaksono/authstep/internal/pkg/router"
	"github.com/wicaksono/authstep/internal/pkg/uid"
	"github.com/wicaksono/authstep/internal/pkg/validator"
	"github.com/wicaksono/authstep/internal/twofactor/inbound"
	"github.com/wicaksono/authstep/internal/twofactor/outbound/db"
	"github.com/wicaksono/authstep/internal/twofactor/outbound/mq"
	"github.com/wicaksono/authstep/internal/twofactor/usecase"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	OID          uid.StringID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Bcrypt       hash.Hash                  `validate:"required"`
	Argon2ID     hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	BackupCodes  mfa.BackupCodeGenerator    `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	QR           qr.Generator               `validate:"required"`
	Limiter      limiter.Limiter            `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Bcrypt:        dep.Bcrypt,
		Argon2ID:      dep.Argon2ID,
		MFAEncryptor:  dep.MFAEncryptor,
		BackupCodes:   dep.BackupCodes,
		UID:           dep.UID,
		OID:           dep.OID,
		Totp:          dep.Totp,
		QR:            dep.QR,
		Clock:         dep.Clock,
		Limiter:       dep.Limiter,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, dep.Config, uc)

	uc.StartSessionSweeper(ctx)

	return nil
}
