package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"freightdesk/internal/domain/shipment"
	"freightdesk/pkg/logger"
)

// Notifier delivers a client-facing shipment notification.
// The delivery channel (messenger, email) lives outside this module.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is what the client is told about a shipment.
type Notification struct {
	ClientCode    string
	InternalTrack string
	Status        shipment.Status
	StatusLabel   string
	Location      string
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger.Info(ctx, "client notification",
		"client_code", n.ClientCode,
		"track", n.InternalTrack,
		"status", n.Status,
		"status_label", n.StatusLabel,
		"location", n.Location)
	return nil
}

// NotificationHandler consumes shipment tasks.
type NotificationHandler struct {
	notifier Notifier
}

// NewNotificationHandler creates a handler. A nil notifier logs.
func NewNotificationHandler(notifier Notifier) *NotificationHandler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &NotificationHandler{notifier: notifier}
}

// Handle processes TaskShipmentCreated and TaskShipmentStatusChanged tasks.
func (h *NotificationHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var p shipment.StatusChangedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if p.InternalTrack == "" {
		// Nothing the client could look up yet.
		logger.Debug(ctx, "notification skipped: shipment has no track", "shipment_id", p.ShipmentID)
		return nil
	}

	return h.notifier.Notify(ctx, Notification{
		ClientCode:    p.ClientCode,
		InternalTrack: p.InternalTrack,
		Status:        p.To,
		StatusLabel:   p.To.Label(),
		Location:      p.Location,
	})
}
