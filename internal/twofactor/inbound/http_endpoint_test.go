package inbound

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/config"
	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/pkg/router"
	"github.com/wicaksono/authstep/internal/twofactor/usecase"
)

type stubUsecase struct {
	sessionIssueIn  *usecase.SessionIssueInput
	sessionVerifyIn *usecase.SessionVerifyInput
}

func (s *stubUsecase) SetupBegin(_ context.Context, _ usecase.SetupBeginInput) (*usecase.SetupBeginOutput, error) {
	return &usecase.SetupBeginOutput{}, nil
}

func (s *stubUsecase) SetupConfirm(_ context.Context, _ usecase.SetupConfirmInput) error {
	return nil
}

func (s *stubUsecase) Status(_ context.Context) (*usecase.StatusOutput, error) {
	return &usecase.StatusOutput{}, nil
}

func (s *stubUsecase) Disable(_ context.Context, _ usecase.DisableInput) error {
	return nil
}

func (s *stubUsecase) BackupCodeRegenerate(_ context.Context, _ usecase.BackupCodeRegenerateInput) (*usecase.BackupCodeRegenerateOutput, error) {
	return &usecase.BackupCodeRegenerateOutput{}, nil
}

func (s *stubUsecase) SessionIssue(_ context.Context, in usecase.SessionIssueInput) (*usecase.SessionIssueOutput, error) {
	s.sessionIssueIn = &in
	return &usecase.SessionIssueOutput{
		SessionToken: "opaque-token",
		ExpiresAt:    time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC),
	}, nil
}

func (s *stubUsecase) SessionVerify(_ context.Context, in usecase.SessionVerifyInput) (*usecase.SessionVerifyOutput, error) {
	s.sessionVerifyIn = &in
	return &usecase.SessionVerifyOutput{UserID: 42}, nil
}

func testConfig(t *testing.T, yaml string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	return cfg
}

func TestSessionIssueRequiresServiceToken(t *testing.T) {
	// Arrange
	stub := &stubUsecase{}
	h := &HTTPEndpoint{
		uc: stub,
		cfg: testConfig(t, `
modules:
  twofactor:
    service_token: sekrit
`),
	}

	body := `{"user_id":"42"}`
	req := httptest.NewRequest("POST", "/api/v1/2fa/session", strings.NewReader(body))

	// Act: no token.
	_, err := h.SessionIssue(&router.Request{Request: req})

	// Assert
	var ge *goerror.Error
	if !errors.As(err, &ge) || ge.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if stub.sessionIssueIn != nil {
		t.Fatal("usecase must not be reached without a service token")
	}

	// Act: correct token.
	req = httptest.NewRequest("POST", "/api/v1/2fa/session", strings.NewReader(body))
	req.Header.Set(headerServiceToken, "sekrit")

	resp, err := h.SessionIssue(&router.Request{Request: req})
	if err != nil {
		t.Fatalf("session issue: %v", err)
	}

	out, ok := resp.(SessionIssueResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if out.SessionToken != "opaque-token" {
		t.Fatalf("unexpected token %q", out.SessionToken)
	}
	if stub.sessionIssueIn == nil || stub.sessionIssueIn.UserID != 42 {
		t.Fatalf("unexpected usecase input: %+v", stub.sessionIssueIn)
	}
}

func TestSessionIssueRejectsEmptyConfiguredToken(t *testing.T) {
	// A missing service_token must fail closed, not open.
	stub := &stubUsecase{}
	h := &HTTPEndpoint{uc: stub, cfg: testConfig(t, `{}`)}

	req := httptest.NewRequest("POST", "/api/v1/2fa/session", strings.NewReader(`{"user_id":"42"}`))
	req.Header.Set(headerServiceToken, "")

	_, err := h.SessionIssue(&router.Request{Request: req})

	var ge *goerror.Error
	if !errors.As(err, &ge) || ge.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSessionVerifyPassesThrough(t *testing.T) {
	stub := &stubUsecase{}
	h := &HTTPEndpoint{uc: stub, cfg: testConfig(t, `{}`)}

	body := `{"session_token":"tok","code":"123456"}`
	req := httptest.NewRequest("POST", "/api/v1/2fa/session/verify", strings.NewReader(body))

	resp, err := h.SessionVerify(&router.Request{Request: req})
	if err != nil {
		t.Fatalf("session verify: %v", err)
	}

	if stub.sessionVerifyIn == nil || stub.sessionVerifyIn.SessionToken != "tok" || stub.sessionVerifyIn.Code != "123456" {
		t.Fatalf("unexpected usecase input: %+v", stub.sessionVerifyIn)
	}

	out, ok := resp.(SessionVerifyResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if out.UserID != 42 {
		t.Fatalf("unexpected user id %d", out.UserID)
	}
}
