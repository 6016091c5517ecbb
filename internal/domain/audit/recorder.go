package audit

import (
	"context"
	"time"

	appctx "freightdesk/internal/core/context"
	"freightdesk/internal/core/id"
)

// Action is the kind of change recorded.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is one audited mutation with before/after snapshots.
type Change struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	OperatorID string
	Before     any
	After      any
	At         time.Time
}

// NewChange builds a Change stamped with the operator from ctx.
func NewChange(ctx context.Context, entityType string, entityID id.ID, action Action, before, after any, at time.Time) Change {
	return Change{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OperatorID: appctx.GetOperatorID(ctx),
		Before:     before,
		After:      after,
		At:         at.UTC(),
	}
}

// Recorder persists changes in the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, c Change) error
}

// NopRecorder drops changes.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Change) error { return nil }
