package inbound

import (
	"crypto/subtle"
	"log/slog"

	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/router"
	"github.com/wicaksono/authstep/internal/twofactor/usecase"
)

// headerServiceToken authenticates internal service-to-service calls.
const headerServiceToken = "X-Service-Token"

// HTTPEndpoint exposes HTTP handlers for second-factor workflows.
type HTTPEndpoint struct {
	uc  uc
	cfg config.Config
}

// SetupBegin provisions a fresh TOTP secret and backup codes for the caller.
func (h *HTTPEndpoint) SetupBegin(r *router.Request) (any, error) {
	var req SetupBeginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SetupBegin(r.Context(), usecase.SetupBeginInput{
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return nil, err
	}

	return SetupBeginResponse{
		Secret:      resp.Secret,
		URI:         resp.URI,
		QRCode:      resp.QRCode,
		BackupCodes: resp.BackupCodes,
	}, nil
}

// SetupConfirm activates a pending enrollment with a valid TOTP code.
func (h *HTTPEndpoint) SetupConfirm(r *router.Request) (any, error) {
	var req SetupConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SetupConfirm(r.Context(), usecase.SetupConfirmInput{
		Code: req.Code,
	}); err != nil {
		return nil, err
	}

	return SetupConfirmResponse{}, nil
}

// Status reports the caller's enrollment state.
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Enabled:              resp.Enabled,
		PendingSetup:         resp.PendingSetup,
		RemainingBackupCodes: resp.RemainingBackupCodes,
	}, nil
}

// Disable removes the caller's enrollment entirely.
func (h *HTTPEndpoint) Disable(r *router.Request) (any, error) {
	var req DisableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Disable(r.Context(), usecase.DisableInput{
		CurrentPassword: req.CurrentPassword,
	}); err != nil {
		return nil, err
	}

	return DisableResponse{}, nil
}

// BackupCodeRegenerate replaces the caller's backup code set.
func (h *HTTPEndpoint) BackupCodeRegenerate(r *router.Request) (any, error) {
	var req BackupCodeRegenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.BackupCodeRegenerate(r.Context(), usecase.BackupCodeRegenerateInput{
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return nil, err
	}

	return BackupCodeRegenerateResponse{Codes: resp.Codes}, nil
}

// SessionIssue opens a pending second-factor session. Callable only by the
// primary-auth service holding the shared service token.
func (h *HTTPEndpoint) SessionIssue(r *router.Request) (any, error) {
	if err := h.requireServiceToken(r); err != nil {
		return nil, err
	}

	var req SessionIssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SessionIssue(r.Context(), usecase.SessionIssueInput{
		UserID: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return SessionIssueResponse{
		SessionToken: resp.SessionToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

// SessionVerify completes a pending session with a TOTP or backup code.
func (h *HTTPEndpoint) SessionVerify(r *router.Request) (any, error) {
	var req SessionVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SessionVerify(r.Context(), usecase.SessionVerifyInput{
		SessionToken: req.SessionToken,
		Code:         req.Code,
	})
	if err != nil {
		return nil, err
	}

	return SessionVerifyResponse{
		UserID:               resp.UserID,
		Method:               resp.Method.String(),
		RemainingBackupCodes: resp.RemainingBackupCodes,
	}, nil
}

func (h *HTTPEndpoint) requireServiceToken(r *router.Request) error {
	want := h.cfg.GetString("modules.twofactor.service_token")
	got := r.Header.Get(headerServiceToken)

	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		slog.WarnContext(r.Context(), "service token rejected", "path", r.URL.Path)
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return nil
}
