package otp

import (
	"strings"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
)

func TestTOTPGenerateAndValidate(t *testing.T) {
	// Arrange
	o := NewTOTP("authstep", 30, 1, libotp.DigitsSix)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	secret, uri, err := o.Generate("alice@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if secret == "" {
		t.Fatal("expected non-empty secret")
	}
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning uri: %q", uri)
	}
	if !strings.Contains(uri, "issuer=authstep") {
		t.Fatalf("uri missing issuer: %q", uri)
	}

	// Act
	code, err := o.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	// Assert
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if !o.Validate(code, secret, now) {
		t.Fatal("expected code to validate at its own step")
	}
}

func TestTOTPValidateSkewWindow(t *testing.T) {
	// Arrange
	o := NewTOTP("authstep", 30, 1, libotp.DigitsSix)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	secret, _, err := o.Generate("bob@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	code, err := o.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	// One step of drift on either side stays inside the skew window.
	if !o.Validate(code, secret, now.Add(30*time.Second)) {
		t.Fatal("expected code to validate one step late")
	}
	if !o.Validate(code, secret, now.Add(-30*time.Second)) {
		t.Fatal("expected code to validate one step early")
	}

	// Two steps out is beyond skew=1.
	if o.Validate(code, secret, now.Add(90*time.Second)) {
		t.Fatal("expected code to fail well outside the skew window")
	}
}

func TestTOTPValidateRejectsMalformedCodes(t *testing.T) {
	o := NewTOTP("authstep", 30, 1, libotp.DigitsSix)
	now := time.Now()

	secret, _, err := o.Generate("carol@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, code := range []string{"", "12345", "1234567", "abcdef", "12 456"} {
		if o.Validate(code, secret, now) {
			t.Fatalf("expected code %q to be rejected", code)
		}
	}
}

func TestNewTOTPDefaults(t *testing.T) {
	o := NewTOTP("authstep", 0, 0, libotp.Digits(13))

	if o.period != 30 {
		t.Fatalf("expected default period 30, got %d", o.period)
	}
	if o.skew != 1 {
		t.Fatalf("expected default skew 1, got %d", o.skew)
	}
	if o.digits != libotp.DigitsSix {
		t.Fatalf("expected fallback to six digits, got %v", o.digits)
	}
}
