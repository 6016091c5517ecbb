package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/events"
	"freightdesk/internal/core/id"
	"freightdesk/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed relays after which a message is parked as failed.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// OutboxPublisher writes domain events to sys_outbox in the caller's transaction.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ events.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements events.Publisher. It must run inside a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, evs ...events.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	if len(evs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ev := range evs {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		batch.Queue(insertOutboxSQL,
			ev.ID, ev.AggregateType, ev.AggregateID, ev.Type, payload, OutboxStatusPending, ev.OccurredAt)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range evs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert outbox message: %w", err)
		}
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay hands pending outbox messages to a handler and records the outcome.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
	clock     clockz.Clock
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler, clock clockz.Clock) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
		clock:     clock,
	}
}

// RetryDelay is the backoff before the next relay attempt of a message.
func RetryDelay(retryCount int) time.Duration {
	return time.Duration(retryCount+1) * time.Minute
}

// ProcessBatch relays one batch of due messages and returns how many succeeded.
// Rows are locked with SKIP LOCKED so several relays can run side by side.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)
		now := r.clock.Now().UTC()

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= $2)
			ORDER BY created_at, id
			LIMIT $3
			FOR UPDATE SKIP LOCKED`,
			OutboxStatusPending, now, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, q, msg, now); err != nil {
				return err
			}
			if msg.Status == OutboxStatusPublished {
				processed++
			}
		}
		return nil
	})

	return processed, err
}

// processMessage runs the handler; only bookkeeping failures are returned.
func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage, now time.Time) error {
	if err := r.handler.Handle(ctx, msg); err != nil {
		logger.Warn(ctx, "outbox relay failed",
			"id", msg.ID,
			"event_type", msg.EventType,
			"retry", msg.RetryCount,
			"error", err)

		status := OutboxStatusPending
		if msg.RetryCount+1 >= MaxOutboxRetries {
			status = OutboxStatusFailed
		}
		_, updateErr := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = $3
			WHERE id = $4`,
			err.Error(), now.Add(RetryDelay(msg.RetryCount)), status, msg.ID)
		if updateErr != nil {
			return fmt.Errorf("update failed message: %w", updateErr)
		}
		msg.Status = status
		return nil
	}

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3`,
		OutboxStatusPublished, now, msg.ID); err != nil {
		return fmt.Errorf("mark message published: %w", err)
	}
	msg.Status = OutboxStatusPublished
	return nil
}
