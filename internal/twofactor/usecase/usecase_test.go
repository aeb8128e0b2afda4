package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
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
	"github.com/wicaksono/authstep/internal/twofactor/outbound/memory"
)

const (
	testUserID   = int64(42)
	testPassword = "correct horse battery staple"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clocker = (*fixedClock)(nil)

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type stubMessaging struct {
	mu      sync.Mutex
	enabled []SecondFactorEvent
	disabld []SecondFactorEvent
	rotated []SecondFactorEvent
	used    []BackupCodeUsedEvent
}

func (m *stubMessaging) PublishEnabled(_ context.Context, msg SecondFactorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = append(m.enabled, msg)
	return nil
}

func (m *stubMessaging) PublishDisabled(_ context.Context, msg SecondFactorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabld = append(m.disabld, msg)
	return nil
}

func (m *stubMessaging) PublishBackupCodesRotated(_ context.Context, msg SecondFactorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotated = append(m.rotated, msg)
	return nil
}

func (m *stubMessaging) PublishBackupCodeUsed(_ context.Context, msg BackupCodeUsedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used = append(m.used, msg)
	return nil
}

type testEnv struct {
	uc    *Usecase
	store *memory.Store
	clock *fixedClock
	msg   *stubMessaging
	totp  otp.OTP
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  twofactor:
    session_ttl_minutes: 5
    session_max_attempts: 5
    session_sweep_interval_minutes: 60
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	snow, err := uid.NewSnowflake()
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	oid, err := uid.NewObjectIDGenerator()
	if err != nil {
		t.Fatalf("object id: %v", err)
	}

	clk := &fixedClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	msg := &stubMessaging{}
	store := memory.NewStore()
	totpGen := otp.NewTOTP("authstep", 30, 1, libotp.DigitsSix)
	bcrypt := hash.NewBcrypt(4, "")

	password, err := bcrypt.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store.SeedUserCredential(entity.UserCredential{
		UserID:   testUserID,
		Email:    "alice@example.com",
		Password: string(password),
	})

	key := bytes32(t)

	uc := New(Dependency{
		RepoDB:        store,
		RepoMessaging: msg,
		Validator:     v10,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-hmac-secret"),
		Bcrypt:        bcrypt,
		Argon2ID:      hash.NewArgon2id(""),
		MFAEncryptor:  mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key}),
		BackupCodes:   mfa.NewBackupCode(),
		UID:           snow,
		OID:           oid,
		Totp:          totpGen,
		QR:            qr.NewEncoder(),
		Clock:         clk,
		Limiter:       limiter.NewMemory(limit, 5*time.Minute),
		Instrument:    instrument.NewNoop(),
		Goroutine:     goroutine.NewManager(10),
	})

	return &testEnv{uc: uc, store: store, clock: clk, msg: msg, totp: totpGen}
}

func bytes32(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	return key
}

func authedCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}

// enroll runs setup and confirm for the test user and returns the plaintext
// secret and backup codes.
func enroll(t *testing.T, env *testEnv) (string, []string) {
	t.Helper()

	ctx := authedCtx(testUserID)

	out, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("setup begin: %v", err)
	}

	code, err := env.totp.GenerateCode(out.Secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}

	if err := env.uc.SetupConfirm(ctx, SetupConfirmInput{Code: code}); err != nil {
		t.Fatalf("setup confirm: %v", err)
	}

	return out.Secret, out.BackupCodes
}

func assertBusinessCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error")
	}

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if ge.Code() != code {
		t.Fatalf("expected code %v, got %v (%v)", code, ge.Code(), err)
	}

	return ge
}

func TestSetupBegin(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	ctx := authedCtx(testUserID)

	// Act
	out, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("setup begin: %v", err)
	}

	// Assert
	if out.Secret == "" {
		t.Fatal("expected a secret")
	}
	if !strings.HasPrefix(out.URI, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning uri: %q", out.URI)
	}
	if !strings.HasPrefix(out.QRCode, "data:image/png;base64,") {
		t.Fatalf("unexpected qr code: %.40q...", out.QRCode)
	}
	if len(out.BackupCodes) != 8 {
		t.Fatalf("expected 8 backup codes, got %d", len(out.BackupCodes))
	}

	// Enrollment stays pending until confirm.
	status, err := env.uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Enabled || !status.PendingSetup {
		t.Fatalf("expected pending setup, got %+v", status)
	}
}

func TestSetupBeginWrongPassword(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := authedCtx(testUserID)

	_, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: "not the password"})
	assertBusinessCode(t, err, goerror.CodeUnauthorized)
}

func TestSetupBeginUnauthenticated(t *testing.T) {
	env := newTestEnv(t, 100)

	_, err := env.uc.SetupBegin(context.Background(), SetupBeginInput{CurrentPassword: testPassword})
	assertBusinessCode(t, err, goerror.CodeUnauthorized)
}

func TestSetupBeginAlreadyEnabled(t *testing.T) {
	env := newTestEnv(t, 100)
	enroll(t, env)

	_, err := env.uc.SetupBegin(authedCtx(testUserID), SetupBeginInput{CurrentPassword: testPassword})
	assertBusinessCode(t, err, goerror.CodeConflict)
}

func TestSetupBeginOverwritesPendingSecret(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	ctx := authedCtx(testUserID)

	first, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("first setup begin: %v", err)
	}

	// Act: a second begin replaces the pending secret.
	second, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("second setup begin: %v", err)
	}
	if first.Secret == second.Secret {
		t.Fatal("expected a fresh secret on re-setup")
	}

	// Assert: only the second secret confirms.
	code, err := env.totp.GenerateCode(second.Secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	if err := env.uc.SetupConfirm(ctx, SetupConfirmInput{Code: code}); err != nil {
		t.Fatalf("confirm with new secret: %v", err)
	}
}

func TestSetupConfirmWithoutProvisioning(t *testing.T) {
	env := newTestEnv(t, 100)

	err := env.uc.SetupConfirm(authedCtx(testUserID), SetupConfirmInput{Code: "123456"})
	assertBusinessCode(t, err, goerror.CodeConflict)
}

func TestSetupConfirmInvalidCode(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	ctx := authedCtx(testUserID)

	out, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("setup begin: %v", err)
	}

	wrong := wrongTOTPCode(t, env, out.Secret)

	// Act & Assert
	err = env.uc.SetupConfirm(ctx, SetupConfirmInput{Code: wrong})
	assertBusinessCode(t, err, goerror.CodeUnauthorized)

	// The enrollment is still pending, not burned.
	status, err := env.uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.PendingSetup {
		t.Fatalf("expected enrollment to stay pending, got %+v", status)
	}
}

// wrongTOTPCode derives a six-digit code that is not valid for secret at the
// current clock, by shifting a known-good code.
func wrongTOTPCode(t *testing.T, env *testEnv, secret string) string {
	t.Helper()

	good, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}

	var n int
	fmt.Sscanf(good, "%d", &n)

	for i := 1; i < 10; i++ {
		candidate := fmt.Sprintf("%06d", (n+i*111111)%1000000)
		if !env.totp.Validate(candidate, secret, env.clock.Now()) {
			return candidate
		}
	}

	t.Fatal("could not derive an invalid code")
	return ""
}

func TestSessionIssueAndVerifyWithTOTP(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	secret, _ := enroll(t, env)
	ctx := context.Background()

	// Act
	issued, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}
	if issued.SessionToken == "" {
		t.Fatal("expected a session token")
	}

	wantExpiry := env.clock.Now().Add(5 * time.Minute)
	if !issued.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, issued.ExpiresAt)
	}

	code, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}

	out, err := env.uc.SessionVerify(ctx, SessionVerifyInput{
		SessionToken: issued.SessionToken,
		Code:         code,
	})
	if err != nil {
		t.Fatalf("session verify: %v", err)
	}

	// Assert
	if out.UserID != testUserID {
		t.Fatalf("expected user %d, got %d", testUserID, out.UserID)
	}
	if out.Method != entity.MethodTOTP {
		t.Fatalf("expected method totp, got %v", out.Method)
	}
	if out.RemainingBackupCodes != 8 {
		t.Fatalf("expected 8 backup codes remaining, got %d", out.RemainingBackupCodes)
	}

	// A verified session cannot be replayed.
	_, err = env.uc.SessionVerify(ctx, SessionVerifyInput{
		SessionToken: issued.SessionToken,
		Code:         code,
	})
	ge := assertBusinessCode(t, err, goerror.CodeUnauthorized)
	if ge.Msg() != "invalid or expired session" {
		t.Fatalf("unexpected message: %q", ge.Msg())
	}
}

func TestSessionIssueRequiresEnabledFactor(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := context.Background()

	// Not provisioned at all.
	_, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	assertBusinessCode(t, err, goerror.CodeConflict)

	// Provisioned but unconfirmed.
	if _, err := env.uc.SetupBegin(authedCtx(testUserID), SetupBeginInput{CurrentPassword: testPassword}); err != nil {
		t.Fatalf("setup begin: %v", err)
	}
	_, err = env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	assertBusinessCode(t, err, goerror.CodeConflict)
}

func TestSessionVerifyWithBackupCode(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	_, codes := enroll(t, env)
	ctx := context.Background()

	issued, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}

	// Act: lowercase without the separator still verifies.
	submitted := strings.ToLower(strings.ReplaceAll(codes[0], "-", ""))
	out, err := env.uc.SessionVerify(ctx, SessionVerifyInput{
		SessionToken: issued.SessionToken,
		Code:         submitted,
	})
	if err != nil {
		t.Fatalf("session verify: %v", err)
	}

	// Assert
	if out.Method != entity.MethodBackupCode {
		t.Fatalf("expected method backup_code, got %v", out.Method)
	}
	if out.RemainingBackupCodes != 7 {
		t.Fatalf("expected 7 remaining, got %d", out.RemainingBackupCodes)
	}

	env.msg.mu.Lock()
	used := len(env.msg.used)
	env.msg.mu.Unlock()
	if used != 1 {
		t.Fatalf("expected 1 backup-code-used event, got %d", used)
	}

	// The code is burned: a fresh session rejects it.
	issued, err = env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("second session issue: %v", err)
	}
	_, err = env.uc.SessionVerify(ctx, SessionVerifyInput{
		SessionToken: issued.SessionToken,
		Code:         codes[0],
	})
	ge := assertBusinessCode(t, err, goerror.CodeUnauthorized)
	if ge.Msg() != "invalid code" {
		t.Fatalf("unexpected message: %q", ge.Msg())
	}
}

func TestSessionVerifyDeadSessionsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, 100)
	secret, _ := enroll(t, env)
	ctx := context.Background()

	const want = "invalid or expired session"

	// Unknown token.
	_, err := env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: "no-such-token", Code: "123456"})
	ge := assertBusinessCode(t, err, goerror.CodeUnauthorized)
	if ge.Msg() != want {
		t.Fatalf("unknown token: unexpected message %q", ge.Msg())
	}

	// Expired session.
	issued, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}
	env.clock.Advance(5 * time.Minute)

	code, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	_, err = env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: issued.SessionToken, Code: code})
	ge = assertBusinessCode(t, err, goerror.CodeUnauthorized)
	if ge.Msg() != want {
		t.Fatalf("expired session: unexpected message %q", ge.Msg())
	}
}

func TestSessionVerifyAttemptCap(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	secret, _ := enroll(t, env)
	ctx := context.Background()

	issued, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}

	// Act: burn the five allowed attempts on a wrong code.
	for i := 0; i < 5; i++ {
		wrong := wrongTOTPCode(t, env, secret)
		_, err := env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: issued.SessionToken, Code: wrong})
		ge := assertBusinessCode(t, err, goerror.CodeUnauthorized)
		if ge.Msg() != "invalid code" {
			t.Fatalf("attempt %d: unexpected message %q", i, ge.Msg())
		}
	}

	// Assert: even the right code is rejected once the cap is hit, with the
	// same error as any other dead session.
	code, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	_, err = env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: issued.SessionToken, Code: code})
	ge := assertBusinessCode(t, err, goerror.CodeUnauthorized)
	if ge.Msg() != "invalid or expired session" {
		t.Fatalf("unexpected message: %q", ge.Msg())
	}
}

func TestSessionVerifyRateLimited(t *testing.T) {
	// Arrange: a limiter tighter than the per-session attempt cap.
	env := newTestEnv(t, 2)
	secret, _ := enroll(t, env)
	ctx := context.Background()

	issued, err := env.uc.SessionIssue(ctx, SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}

	for i := 0; i < 2; i++ {
		wrong := wrongTOTPCode(t, env, secret)
		if _, err := env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: issued.SessionToken, Code: wrong}); err == nil {
			t.Fatalf("attempt %d: expected an error", i)
		}
	}

	// Act & Assert
	code, err := env.totp.GenerateCode(secret, env.clock.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	_, err = env.uc.SessionVerify(ctx, SessionVerifyInput{SessionToken: issued.SessionToken, Code: code})
	assertBusinessCode(t, err, goerror.CodeTooManyRequest)
}

func TestDisable(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	enroll(t, env)
	ctx := authedCtx(testUserID)

	issued, err := env.uc.SessionIssue(context.Background(), SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}

	// Act
	if err := env.uc.Disable(ctx, DisableInput{CurrentPassword: testPassword}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	// Assert: everything is gone, including the outstanding session.
	status, err := env.uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Enabled || status.PendingSetup || status.RemainingBackupCodes != 0 {
		t.Fatalf("expected clean slate, got %+v", status)
	}

	_, err = env.uc.SessionVerify(context.Background(), SessionVerifyInput{SessionToken: issued.SessionToken, Code: "123456"})
	assertBusinessCode(t, err, goerror.CodeUnauthorized)

	_, err = env.uc.SessionIssue(context.Background(), SessionIssueInput{UserID: testUserID})
	assertBusinessCode(t, err, goerror.CodeConflict)

	env.msg.mu.Lock()
	disabled := len(env.msg.disabld)
	env.msg.mu.Unlock()
	if disabled != 1 {
		t.Fatalf("expected 1 disabled event, got %d", disabled)
	}
}

func TestDisableWithoutEnrollment(t *testing.T) {
	env := newTestEnv(t, 100)

	err := env.uc.Disable(authedCtx(testUserID), DisableInput{CurrentPassword: testPassword})
	assertBusinessCode(t, err, goerror.CodeConflict)
}

func TestBackupCodeRegenerate(t *testing.T) {
	// Arrange
	env := newTestEnv(t, 100)
	_, oldCodes := enroll(t, env)
	ctx := authedCtx(testUserID)

	// Act
	out, err := env.uc.BackupCodeRegenerate(ctx, BackupCodeRegenerateInput{CurrentPassword: testPassword})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(out.Codes) != 8 {
		t.Fatalf("expected 8 codes, got %d", len(out.Codes))
	}

	// Assert: old codes are dead, new ones verify.
	issued, err := env.uc.SessionIssue(context.Background(), SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}
	_, err = env.uc.SessionVerify(context.Background(), SessionVerifyInput{SessionToken: issued.SessionToken, Code: oldCodes[0]})
	assertBusinessCode(t, err, goerror.CodeUnauthorized)

	issued, err = env.uc.SessionIssue(context.Background(), SessionIssueInput{UserID: testUserID})
	if err != nil {
		t.Fatalf("second session issue: %v", err)
	}
	verified, err := env.uc.SessionVerify(context.Background(), SessionVerifyInput{SessionToken: issued.SessionToken, Code: out.Codes[0]})
	if err != nil {
		t.Fatalf("verify with new code: %v", err)
	}
	if verified.Method != entity.MethodBackupCode {
		t.Fatalf("expected method backup_code, got %v", verified.Method)
	}

	env.msg.mu.Lock()
	rotated := len(env.msg.rotated)
	env.msg.mu.Unlock()
	if rotated != 1 {
		t.Fatalf("expected 1 rotated event, got %d", rotated)
	}
}

func TestBackupCodeRegenerateRequiresEnabled(t *testing.T) {
	env := newTestEnv(t, 100)
	ctx := authedCtx(testUserID)

	// Pending setup does not count as enabled.
	if _, err := env.uc.SetupBegin(ctx, SetupBeginInput{CurrentPassword: testPassword}); err != nil {
		t.Fatalf("setup begin: %v", err)
	}

	_, err := env.uc.BackupCodeRegenerate(ctx, BackupCodeRegenerateInput{CurrentPassword: testPassword})
	assertBusinessCode(t, err, goerror.CodeConflict)
}

func TestStatusNotProvisioned(t *testing.T) {
	env := newTestEnv(t, 100)

	status, err := env.uc.Status(authedCtx(testUserID))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Enabled || status.PendingSetup || status.RemainingBackupCodes != 0 {
		t.Fatalf("expected zero status, got %+v", status)
	}
}

func TestStatusEnabled(t *testing.T) {
	env := newTestEnv(t, 100)
	enroll(t, env)

	status, err := env.uc.Status(authedCtx(testUserID))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Enabled || status.PendingSetup {
		t.Fatalf("expected enabled status, got %+v", status)
	}
	if status.RemainingBackupCodes != 8 {
		t.Fatalf("expected 8 backup codes, got %d", status.RemainingBackupCodes)
	}
}

func TestSetupConfirmPublishesEnabledEvent(t *testing.T) {
	env := newTestEnv(t, 100)
	enroll(t, env)

	env.msg.mu.Lock()
	defer env.msg.mu.Unlock()

	if len(env.msg.enabled) != 1 {
		t.Fatalf("expected 1 enabled event, got %d", len(env.msg.enabled))
	}
	if env.msg.enabled[0].UserID != testUserID {
		t.Fatalf("unexpected event user: %d", env.msg.enabled[0].UserID)
	}
}
