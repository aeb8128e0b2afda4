package mfa

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testEncryptor(t *testing.T) *AESGCMEncryptor {
	t.Helper()

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("read random key: %v", err)
	}

	return NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: key})
}

func TestAESGCMEncryptorRoundTrip(t *testing.T) {
	// Arrange
	enc := testEncryptor(t)
	scope := Scope{UserID: 42, Purpose: PurposeOTPSeed}
	plaintext := []byte("JBSWY3DPEHPK3PXP")

	// Act
	ciphertext, err := enc.Encrypt(plaintext, scope)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := enc.Decrypt(ciphertext, scope)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	// Assert
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext leaks plaintext")
	}
}

func TestAESGCMEncryptorScopeMismatch(t *testing.T) {
	enc := testEncryptor(t)
	plaintext := []byte("JBSWY3DPEHPK3PXP")

	ciphertext, err := enc.Encrypt(plaintext, Scope{UserID: 42, Purpose: PurposeOTPSeed})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// A ciphertext minted for one user cannot be decrypted as another.
	if _, err := enc.Decrypt(ciphertext, Scope{UserID: 43, Purpose: PurposeOTPSeed}); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed for wrong user, got %v", err)
	}
}

func TestAESGCMEncryptorRejectsBadInput(t *testing.T) {
	enc := testEncryptor(t)
	scope := Scope{UserID: 42, Purpose: PurposeOTPSeed}

	if _, err := enc.Encrypt(nil, scope); !errors.Is(err, ErrPlaintextEmpty) {
		t.Fatalf("expected ErrPlaintextEmpty, got %v", err)
	}

	if _, err := enc.Decrypt([]byte{0x01}, scope); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}

	ciphertext, err := enc.Encrypt([]byte("secret"), scope)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip the version byte.
	bad := append([]byte(nil), ciphertext...)
	bad[0] = 0xFF
	if _, err := enc.Decrypt(bad, scope); !errors.Is(err, ErrUnsupportedCiphertextVersion) {
		t.Fatalf("expected ErrUnsupportedCiphertextVersion, got %v", err)
	}

	// Corrupt the tag.
	bad = append([]byte(nil), ciphertext...)
	bad[len(bad)-1] ^= 0x01
	if _, err := enc.Decrypt(bad, scope); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected ErrDecryptFailed for corrupted ciphertext, got %v", err)
	}
}

func TestAESGCMEncryptorKeyErrors(t *testing.T) {
	scope := Scope{UserID: 1, Purpose: PurposeOTPSeed}

	enc := NewAESGCMEncryptor(StaticKeyProvider{})
	if _, err := enc.Encrypt([]byte("x"), scope); !errors.Is(err, ErrMissingStaticKey) {
		t.Fatalf("expected ErrMissingStaticKey, got %v", err)
	}

	short := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: make([]byte, 16)})
	if _, err := short.Encrypt([]byte("x"), scope); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}
