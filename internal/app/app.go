package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/wicaksono/authstep/internal/pkg/clock"
	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/goroutine"
	"github.com/wicaksono/authstep/internal/pkg/hash"
	"github.com/wicaksono/authstep/internal/pkg/instrument"
	"github.com/wicaksono/authstep/internal/pkg/jwt"
	"github.com/wicaksono/authstep/internal/pkg/limiter"
	"github.com/wicaksono/authstep/internal/pkg/messaging"
	"github.com/wicaksono/authstep/internal/pkg/mfa"
	"github.com/wicaksono/authstep/internal/pkg/otp"
	"github.com/wicaksono/authstep/internal/pkg/qr"
	"github.com/wicaksono/authstep/internal/pkg/router"
	"github.com/wicaksono/authstep/internal/pkg/uid"
	"github.com/wicaksono/authstep/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hmac         hash.Hash
	argon2id     hash.Hash
	bcrypt       hash.Hash
	uid          uid.NumberID
	oid          uid.StringID
	uuid         uid.StringID
	totp         otp.OTP
	qr           qr.Generator
	jwt          jwt.Verifier
	mfaEncryptor mfa.Encryptor
	backupCodes  mfa.BackupCodeGenerator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	limiter   limiter.Limiter
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
