package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"freightdesk/internal/infrastructure/storage/postgres"
	"freightdesk/pkg/logger"
)

// Enqueuer is the producing side of asynq. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Forwarder turns outbox messages into asynq tasks.
type Forwarder struct {
	enqueuer Enqueuer
}

// NewForwarder creates a forwarder.
func NewForwarder(enqueuer Enqueuer) *Forwarder {
	return &Forwarder{enqueuer: enqueuer}
}

var _ postgres.OutboxHandler = (*Forwarder)(nil)

// Handle implements postgres.OutboxHandler. The outbox message ID doubles as the
// asynq task ID, so a message relayed twice is enqueued once.
func (f *Forwarder) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	taskType, ok := TaskTypeFor(msg.EventType)
	if !ok {
		logger.Debug(ctx, "outbox event not relayed", "id", msg.ID, "event_type", msg.EventType)
		return nil
	}

	task := NewShipmentTask(taskType, msg.Payload)
	_, err := f.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(msg.ID.String()),
		asynq.MaxRetry(MaxTaskRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}

	logger.Debug(ctx, "outbox event enqueued", "id", msg.ID, "task", taskType, "aggregate_id", msg.AggregateID)
	return nil
}
