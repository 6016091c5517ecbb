// Package jobs relays shipment events from the outbox to asynq and handles them.
package jobs

import (
	"github.com/hibiken/asynq"

	"freightdesk/internal/domain/shipment"
)

const (
	// QueueDefault is the queue every shipment task goes to.
	QueueDefault = "default"

	TaskShipmentCreated       = "shipment:created"
	TaskShipmentStatusChanged = "shipment:status_changed"
)

// MaxTaskRetry bounds asynq retries of a notification task.
const MaxTaskRetry = 5

// taskTypes maps outbox event types to task types. Events not listed are not relayed.
var taskTypes = map[string]string{
	shipment.EventCreated:       TaskShipmentCreated,
	shipment.EventStatusChanged: TaskShipmentStatusChanged,
}

// TaskTypeFor returns the task type relaying eventType.
func TaskTypeFor(eventType string) (string, bool) {
	t, ok := taskTypes[eventType]
	return t, ok
}

// NewShipmentTask builds the task carrying an outbox payload verbatim.
func NewShipmentTask(taskType string, payload []byte) *asynq.Task {
	return asynq.NewTask(taskType, payload)
}
