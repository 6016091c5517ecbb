// Package numerator provides domain contracts for atomic ordinal counters.
package numerator

import (
	"freightdesk/internal/core/id"
)

// Key names one independent counter.
type Key string

// ShipmentsInBatch is the counter that hands out shipment ordinals within a batch.
// Counters are scoped per batch: the batch prefix already makes tracks unique across batches.
func ShipmentsInBatch(batchID id.ID) Key {
	return Key("shipment:batch:" + batchID.String())
}
