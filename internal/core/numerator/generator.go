package numerator

import (
	"context"
)

// Generator hands out gap-tolerant, collision-free ordinals.
// Implementations live in the infrastructure layer.
type Generator interface {
	// Next atomically advances the counter for key and returns the new value.
	// The first call for a key returns 1. Two concurrent callers never receive the same value.
	Next(ctx context.Context, key Key) (int64, error)
}
