package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"freightdesk/pkg/logger"
)

// TaskHandler binds a task type to its handler.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects what the asynq server needs.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Handlers    []TaskHandler
}

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker constructs a worker serving cfg.Handlers.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			logger.Warn(ctx, "task failed", "type", t.Type(), "error", err)
		}),
	})

	return &Worker{server: srv, mux: NewServeMux(cfg.Handlers)}
}

// NewServeMux registers handlers, skipping incomplete entries.
func NewServeMux(handlers []TaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, h := range handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return mux
}

// ShipmentHandlers wires the notification handler to every shipment task.
func ShipmentHandlers(h *NotificationHandler) []TaskHandler {
	return []TaskHandler{
		{Type: TaskShipmentCreated, Handler: h.Handle},
		{Type: TaskShipmentStatusChanged, Handler: h.Handle},
	}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return ctx.Err()
}

// BatchProcessor is one pass of the outbox relay.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// RelayLoop polls the outbox on an interval. A full batch is followed
// immediately by another pass.
type RelayLoop struct {
	relay     BatchProcessor
	interval  time.Duration
	batchSize int
}

// NewRelayLoop creates a relay loop.
func NewRelayLoop(relay BatchProcessor, interval time.Duration, batchSize int) *RelayLoop {
	if interval <= 0 {
		interval = time.Second
	}
	return &RelayLoop{relay: relay, interval: interval, batchSize: batchSize}
}

// Run polls until ctx is cancelled. Relay errors are logged, never fatal.
func (l *RelayLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.drain(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RelayLoop) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := l.relay.ProcessBatch(ctx)
		if err != nil {
			logger.Error(ctx, "outbox relay pass failed", "error", err)
			return
		}
		if n > 0 {
			logger.Debug(ctx, "outbox relayed", "count", n)
		}
		if l.batchSize <= 0 || n < l.batchSize {
			return
		}
	}
}
