package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/storage/postgres"
)

type enqueued struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeEnqueuer struct {
	calls []enqueued
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.calls = append(f.calls, enqueued{task: task, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "x", Type: task.Type()}, nil
}

func outboxMessage(t *testing.T, eventType string, p shipment.StatusChangedPayload) *postgres.OutboxMessage {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: shipment.AggregateType,
		AggregateID:   p.ShipmentID,
		EventType:     eventType,
		Payload:       body,
		Status:        postgres.OutboxStatusPending,
	}
}

func samplePayload() shipment.StatusChangedPayload {
	return shipment.StatusChangedPayload{
		ShipmentID:    id.New(),
		InternalTrack: "00010-2661A0001",
		ClientCode:    "2661",
		From:          shipment.StatusReceivedCN,
		To:            shipment.StatusInTransit,
		Location:      "In transit",
	}
}

func TestTaskTypeFor(t *testing.T) {
	tt, ok := TaskTypeFor(shipment.EventCreated)
	assert.True(t, ok)
	assert.Equal(t, TaskShipmentCreated, tt)

	tt, ok = TaskTypeFor(shipment.EventStatusChanged)
	assert.True(t, ok)
	assert.Equal(t, TaskShipmentStatusChanged, tt)

	_, ok = TaskTypeFor(shipment.EventDeleted)
	assert.False(t, ok)
}

func TestForwarder_EnqueuesPayloadVerbatim(t *testing.T) {
	enq := &fakeEnqueuer{}
	msg := outboxMessage(t, shipment.EventStatusChanged, samplePayload())

	require.NoError(t, NewForwarder(enq).Handle(context.Background(), msg))

	require.Len(t, enq.calls, 1)
	assert.Equal(t, TaskShipmentStatusChanged, enq.calls[0].task.Type())
	assert.Equal(t, msg.Payload, enq.calls[0].task.Payload())
	assert.Len(t, enq.calls[0].opts, 3)
}

func TestForwarder_SkipsUnrelayedEvents(t *testing.T) {
	enq := &fakeEnqueuer{}
	msg := outboxMessage(t, shipment.EventDeleted, samplePayload())

	require.NoError(t, NewForwarder(enq).Handle(context.Background(), msg))
	assert.Empty(t, enq.calls)
}

func TestForwarder_DuplicateTaskIsSuccess(t *testing.T) {
	enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	msg := outboxMessage(t, shipment.EventCreated, samplePayload())

	assert.NoError(t, NewForwarder(enq).Handle(context.Background(), msg))
}

func TestForwarder_EnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	enq := &fakeEnqueuer{err: boom}
	msg := outboxMessage(t, shipment.EventCreated, samplePayload())

	err := NewForwarder(enq).Handle(context.Background(), msg)
	assert.ErrorIs(t, err, boom)
}

type captureNotifier struct {
	got []Notification
}

func (c *captureNotifier) Notify(_ context.Context, n Notification) error {
	c.got = append(c.got, n)
	return nil
}

func TestNotificationHandler_Handle(t *testing.T) {
	n := &captureNotifier{}
	h := NewNotificationHandler(n)
	p := samplePayload()
	body, err := json.Marshal(p)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), asynq.NewTask(TaskShipmentStatusChanged, body)))

	require.Len(t, n.got, 1)
	assert.Equal(t, "2661", n.got[0].ClientCode)
	assert.Equal(t, "00010-2661A0001", n.got[0].InternalTrack)
	assert.Equal(t, shipment.StatusInTransit, n.got[0].Status)
	assert.Equal(t, shipment.StatusInTransit.Label(), n.got[0].StatusLabel)
}

func TestNotificationHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewNotificationHandler(&captureNotifier{})
	err := h.Handle(context.Background(), asynq.NewTask(TaskShipmentCreated, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotificationHandler_NoTrackIsSkipped(t *testing.T) {
	n := &captureNotifier{}
	p := samplePayload()
	p.InternalTrack = ""
	body, _ := json.Marshal(p)

	require.NoError(t, NewNotificationHandler(n).Handle(context.Background(), asynq.NewTask(TaskShipmentCreated, body)))
	assert.Empty(t, n.got)
}

type scriptedRelay struct {
	mu      sync.Mutex
	results []int
	calls   int
	err     error
}

func (r *scriptedRelay) ProcessBatch(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.results) == 0 {
		return 0, nil
	}
	n := r.results[0]
	r.results = r.results[1:]
	return n, nil
}

func (r *scriptedRelay) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestRelayLoop_DrainsFullBatches(t *testing.T) {
	relay := &scriptedRelay{results: []int{10, 10, 3}}
	loop := NewRelayLoop(relay, time.Hour, 10)

	loop.drain(context.Background())
	assert.Equal(t, 3, relay.callCount())
}

func TestRelayLoop_StopsOnError(t *testing.T) {
	relay := &scriptedRelay{err: errors.New("db down")}
	loop := NewRelayLoop(relay, time.Hour, 10)

	loop.drain(context.Background())
	assert.Equal(t, 1, relay.callCount())
}

func TestRelayLoop_RunStopsOnCancel(t *testing.T) {
	relay := &scriptedRelay{}
	loop := NewRelayLoop(relay, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	assert.Eventually(t, func() bool { return relay.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay loop did not stop")
	}
}

func TestNewServeMux_SkipsIncompleteEntries(t *testing.T) {
	h := NewNotificationHandler(&captureNotifier{})
	handlers := append(ShipmentHandlers(h), TaskHandler{Type: "", Handler: h.Handle}, TaskHandler{Type: "x"})
	mux := NewServeMux(handlers)

	p := samplePayload()
	body, _ := json.Marshal(p)
	assert.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskShipmentCreated, body)))
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("x", body)))
}
