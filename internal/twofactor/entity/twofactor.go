package entity

import "time"

// SecondFactor is the per-user TOTP enrollment. At most one row per user.
//
// Secret holds the AES-GCM ciphertext of the base32 TOTP seed. Enabled stays
// false from provisioning until the user proves possession of the
// authenticator by confirming a code; an enabled row always has a secret.
type SecondFactor struct {
	UserID    int64
	Secret    []byte
	Enabled   bool
	UpdatedAt time.Time
}

// BackupCode is a single-use fallback credential. Code is the argon2id hash
// of the plaintext; the plaintext is shown to the user exactly once at
// generation time. Consumption removes the row.
type BackupCode struct {
	ID     int64
	UserID int64
	Code   string
}

// Session is a pending second-factor login. Token stores the HMAC-SHA256
// hash of the opaque handle handed to the caller; the handle itself is never
// persisted. A session is usable only before ExpiresAt, while Verified is
// false and Attempts is under the configured cap.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Verified  bool
	Attempts  int16
}

// UserCredential is the slice of the shared identity store needed for
// password re-proof. Password is the bcrypt hash.
type UserCredential struct {
	UserID   int64
	Email    string
	Password string
}
