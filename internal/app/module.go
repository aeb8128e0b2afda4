package app

import (
	"log/slog"
	"os"

	"github.com/wicaksono/authstep/internal/twofactor"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofactor.enabled") {
		if err := twofactor.New(a.ctx, twofactor.Dependency{
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			OID:          a.oid,
			Bcrypt:       a.bcrypt,
			HMAC:         a.hmac,
			Argon2ID:     a.argon2id,
			MFAEncryptor: a.mfaEncryptor,
			BackupCodes:  a.backupCodes,
			Clock:        a.clock,
			Validator:    a.validator,
			Router:       a.router,
			Totp:         a.totp,
			QR:           a.qr,
			Limiter:      a.limiter,
			DBConn:       a.dbConn,
			Messaging:    a.messaging,
			Goroutine:    a.goroutine,
		}); err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}
	}
}
