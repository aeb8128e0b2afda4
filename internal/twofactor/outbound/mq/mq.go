// Package mq publishes twofactor security events for downstream consumers
// (audit trail, notification fan-out).
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/instrument"
	"github.com/wicaksono/authstep/internal/pkg/messaging"
	"github.com/wicaksono/authstep/internal/twofactor/usecase"
	"go.opentelemetry.io/otel/codes"
)

// Event destinations. One topic per state change keeps consumer wiring dumb.
const (
	DestinationEnabled            = "twofactor.enabled"
	DestinationDisabled           = "twofactor.disabled"
	DestinationBackupCodesRotated = "twofactor.backup_codes_rotated"
	DestinationBackupCodeUsed     = "twofactor.backup_code_used"
)

const keyOfCorrelationID string = "cID"

type secondFactorMessage struct {
	UserID int64     `json:"user_id,string"`
	At     time.Time `json:"at"`
}

type backupCodeUsedMessage struct {
	UserID    int64     `json:"user_id,string"`
	Remaining int       `json:"remaining"`
	At        time.Time `json:"at"`
}

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishEnabled(ctx context.Context, msg usecase.SecondFactorEvent) error {
	return m.publishSecondFactor(ctx, "PublishEnabled", DestinationEnabled, msg)
}

func (m *Messaging) PublishDisabled(ctx context.Context, msg usecase.SecondFactorEvent) error {
	return m.publishSecondFactor(ctx, "PublishDisabled", DestinationDisabled, msg)
}

func (m *Messaging) PublishBackupCodesRotated(ctx context.Context, msg usecase.SecondFactorEvent) error {
	return m.publishSecondFactor(ctx, "PublishBackupCodesRotated", DestinationBackupCodesRotated, msg)
}

func (m *Messaging) PublishBackupCodeUsed(ctx context.Context, msg usecase.BackupCodeUsedEvent) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.mq").Start(ctx, "PublishBackupCodeUsed")
	defer span.End()

	body, err := json.Marshal(backupCodeUsedMessage{
		UserID:    msg.UserID,
		Remaining: msg.Remaining,
		At:        msg.At,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, DestinationBackupCodeUsed, msg.UserID, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) publishSecondFactor(ctx context.Context, spanName, destination string, msg usecase.SecondFactorEvent) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.mq").Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(secondFactorMessage{
		UserID: msg.UserID,
		At:     msg.At,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.publish(ctx, destination, msg.UserID, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) publish(ctx context.Context, destination string, userID int64, body []byte) error {
	cID := instrument.GetCorrelationID(ctx)

	return m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body: body,
		// keyed by user so per-user events stay ordered
		Key:     []byte(strconv.FormatInt(userID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})
}
