package inbound

import (
	"context"

	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/router"
	"github.com/wicaksono/authstep/internal/twofactor/usecase"
)

type uc interface {
	SetupBegin(ctx context.Context, in usecase.SetupBeginInput) (*usecase.SetupBeginOutput, error)
	SetupConfirm(ctx context.Context, in usecase.SetupConfirmInput) error
	Disable(ctx context.Context, in usecase.DisableInput) error
	BackupCodeRegenerate(ctx context.Context, in usecase.BackupCodeRegenerateInput) (*usecase.BackupCodeRegenerateOutput, error)
	Status(ctx context.Context) (*usecase.StatusOutput, error)

	SessionIssue(ctx context.Context, in usecase.SessionIssueInput) (*usecase.SessionIssueOutput, error)
	SessionVerify(ctx context.Context, in usecase.SessionVerifyInput) (*usecase.SessionVerifyOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, cfg config.Config, uc uc) {
	end := &HTTPEndpoint{uc: uc, cfg: cfg}

	// Enrollment management (need authenticated)
	r.POST("/api/v1/2fa/setup", end.SetupBegin)
	r.POST("/api/v1/2fa/setup/confirm", end.SetupConfirm)
	r.GET("/api/v1/2fa/status", end.Status)
	r.POST("/api/v1/2fa/disable", end.Disable)
	r.POST("/api/v1/2fa/backup-codes", end.BackupCodeRegenerate)

	// Step-two login (pre-authentication)
	r.POST("/api/v1/2fa/session", end.SessionIssue) // service-to-service only
	r.POST("/api/v1/2fa/session/verify", end.SessionVerify)
}
