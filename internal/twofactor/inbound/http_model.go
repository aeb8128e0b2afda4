package inbound

import "time"

type SetupBeginRequest struct {
	CurrentPassword string `json:"current_password"`
}

type SetupBeginResponse struct {
	Secret      string   `json:"secret"`
	URI         string   `json:"uri"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}

func (SetupBeginResponse) Message() string {
	return "Scan the QR code with your authenticator app, then confirm with a code. Store the backup codes somewhere safe; they will not be shown again."
}

type SetupConfirmRequest struct {
	Code string `json:"code"`
}

type SetupConfirmResponse struct{}

func (SetupConfirmResponse) Message() string {
	return "Two-factor authentication is now enabled."
}

type DisableRequest struct {
	CurrentPassword string `json:"current_password"`
}

type DisableResponse struct{}

func (DisableResponse) Message() string {
	return "Two-factor authentication has been disabled."
}

type BackupCodeRegenerateRequest struct {
	CurrentPassword string `json:"current_password"`
}

type BackupCodeRegenerateResponse struct {
	Codes []string `json:"codes"`
}

func (BackupCodeRegenerateResponse) Message() string {
	return "New backup codes generated. Previous codes no longer work."
}

type StatusResponse struct {
	Enabled              bool `json:"enabled"`
	PendingSetup         bool `json:"pending_setup"`
	RemainingBackupCodes int  `json:"remaining_backup_codes"`
}

type SessionIssueRequest struct {
	UserID int64 `json:"user_id,string"`
}

type SessionIssueResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SessionVerifyRequest struct {
	SessionToken string `json:"session_token"`
	Code         string `json:"code"`
}

type SessionVerifyResponse struct {
	UserID               int64  `json:"user_id,string"`
	Method               string `json:"method"`
	RemainingBackupCodes int    `json:"remaining_backup_codes"`
}
