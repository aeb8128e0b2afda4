package mfa

import (
	"strings"
	"testing"
)

func TestBackupCodeGenerate(t *testing.T) {
	// Arrange
	gen := NewBackupCode()

	// Act
	codes, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Assert
	if len(codes) != backupCodeCount {
		t.Fatalf("expected %d codes, got %d", backupCodeCount, len(codes))
	}

	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if len(code) != backupCodeLength+1 {
			t.Fatalf("unexpected code length for %q", code)
		}
		if code[4] != '-' {
			t.Fatalf("expected XXXX-XXXX format, got %q", code)
		}
		for _, r := range strings.ReplaceAll(code, "-", "") {
			if !strings.ContainsRune(backupAlphabet, r) {
				t.Fatalf("code %q contains character outside the alphabet: %q", code, r)
			}
		}
		if _, ok := seen[code]; ok {
			t.Fatalf("duplicate code in batch: %q", code)
		}
		seen[code] = struct{}{}
	}
}

func TestBackupAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	for _, r := range "0O1IL" {
		if strings.ContainsRune(backupAlphabet, r) {
			t.Fatalf("alphabet must not contain %q", r)
		}
	}
}

func TestNormalizeBackupCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "canonical", in: "ABCD-EFGH", want: "ABCDEFGH"},
		{name: "lowercase", in: "abcd-efgh", want: "ABCDEFGH"},
		{name: "no separator", in: "ABCDEFGH", want: "ABCDEFGH"},
		{name: "spaces and dashes", in: " ab cd - ef gh ", want: "ABCDEFGH"},
		{name: "empty", in: "", want: ""},
		{name: "only separators", in: "--- ---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBackupCode(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizeBackupCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
