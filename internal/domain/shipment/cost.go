package shipment

import (
	"github.com/shopspring/decimal"

	"freightdesk/internal/core/types"
)

// CostBreakdown is the itemised view of a shipment's total cost.
type CostBreakdown struct {
	Delivery          decimal.Decimal  `json:"delivery"`
	Insurance         decimal.Decimal  `json:"insurance"`
	PackingCost       decimal.Decimal  `json:"packingCost"`
	LocalDeliveryCost decimal.Decimal  `json:"localDeliveryCost"`
	Total             *decimal.Decimal `json:"total"`
}

// Breakdown sums item delivery and insurance costs plus shipment surcharges.
// Total is nil when the sum is exactly zero.
func Breakdown(items []Item, packingCost, localDeliveryCost *decimal.Decimal) CostBreakdown {
	b := CostBreakdown{
		Delivery:          decimal.Zero,
		Insurance:         decimal.Zero,
		PackingCost:       types.ValueOrZero(packingCost),
		LocalDeliveryCost: types.ValueOrZero(localDeliveryCost),
	}
	for i := range items {
		b.Delivery = b.Delivery.Add(types.ValueOrZero(items[i].DeliveryCost))
		b.Insurance = b.Insurance.Add(types.ValueOrZero(items[i].InsuranceCost()))
	}

	sum := b.Delivery.Add(b.Insurance).Add(b.PackingCost).Add(b.LocalDeliveryCost)
	if !sum.IsZero() {
		b.Total = types.Ptr(types.RoundMoney(sum))
	}
	return b
}

// TotalCost returns the aggregate shipment cost, or nil when it is zero.
func TotalCost(items []Item, packingCost, localDeliveryCost *decimal.Decimal) *decimal.Decimal {
	return Breakdown(items, packingCost, localDeliveryCost).Total
}

// Recalculate re-derives every item and the total cost in place.
func (s *Shipment) Recalculate() {
	s.Items = DeriveItems(s.InternalTrack, s.Items)
	for i := range s.Items {
		s.Items[i].ShipmentID = s.ID
	}
	s.TotalCost = TotalCost(s.Items, s.PackingCost, s.LocalDeliveryCost)
}
