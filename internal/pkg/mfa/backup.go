package mfa

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// BackupCodeGenerator defines an interface for generating MFA backup codes.
type BackupCodeGenerator interface {
	// Generate returns a slice of unique backup codes or an error if the
	// random source fails.
	Generate() ([]string, error)
}

// backupAlphabet is the character set used for backup code generation.
//
// It is uppercase alphanumeric with the visually ambiguous characters
// 0, O, 1, I and L removed, so codes survive being read aloud or copied
// from a printout.
const backupAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// backupCodeCount and backupCodeLength size a generated batch. Eight codes
// of eight characters each gives roughly 39 bits of entropy per code.
const (
	backupCodeCount  = 8
	backupCodeLength = 8
)

// BackupCode generates cryptographically secure MFA backup codes.
//
// Codes are formatted as:
//
//	XXXX-XXXX
//
// Each X is selected uniformly at random from backupAlphabet using
// crypto/rand.
type BackupCode struct{}

// NewBackupCode returns a new BackupCode generator.
func NewBackupCode() *BackupCode {
	return &BackupCode{}
}

// Generate produces a batch of unique backup codes.
func (bc *BackupCode) Generate() ([]string, error) {
	out := make([]string, 0, backupCodeCount)
	seen := make(map[string]struct{}, backupCodeCount)

	for len(out) < backupCodeCount {
		code, err := bc.generateCode()
		if err != nil {
			return nil, err
		}

		// extremely unlikely, but prevents accidental duplicates
		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

// NormalizeBackupCode strips separators and whitespace and uppercases the
// input, so "abcd-efgh" and "ABCDEFGH" verify as the same code.
func NormalizeBackupCode(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))

	for _, r := range strings.ToUpper(code) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func (bc *BackupCode) generateCode() (string, error) {
	raw, err := bc.randomString(backupCodeLength)
	if err != nil {
		return "", err
	}

	return raw[0:4] + "-" + raw[4:8], nil
}

func (bc *BackupCode) randomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)

	for i := 0; i < n; i++ {
		idx, err := bc.randInt(len(backupAlphabet))
		if err != nil {
			return "", err
		}
		sb.WriteByte(backupAlphabet[idx])
	}

	return sb.String(), nil
}

func (bc *BackupCode) randInt(max int) (int, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}

	return int(num.Int64()), nil
}
