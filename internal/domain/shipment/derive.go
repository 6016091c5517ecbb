package shipment

import (
	"github.com/shopspring/decimal"

	"freightdesk/internal/core/types"
)

var (
	cm3PerM3   = decimal.NewFromInt(1_000_000)
	oneHundred = decimal.NewFromInt(100)
)

// Volume returns length*width*height/1e6 in cubic meters, rounded to four places.
// Nil unless all three dimensions are present and positive.
func Volume(lengthCm, widthCm, heightCm *decimal.Decimal) *decimal.Decimal {
	if !types.Positive(lengthCm) || !types.Positive(widthCm) || !types.Positive(heightCm) {
		return nil
	}
	v := lengthCm.Mul(*widthCm).Mul(*heightCm).Div(cm3PerM3).Round(types.VolumePlaces)
	if !v.IsPositive() {
		// Sub-0.0001 m3 pieces round to zero; density would be undefined.
		return nil
	}
	return &v
}

// Density returns weight/volume rounded to two places, or nil.
func Density(weightKg, volumeM3 *decimal.Decimal) *decimal.Decimal {
	if !types.Positive(weightKg) || !types.Positive(volumeM3) {
		return nil
	}
	d := types.RoundMoney(weightKg.Div(*volumeM3))
	return &d
}

// DeliveryCost applies the tariff to weight or volume, or returns nil when it cannot.
func DeliveryCost(tariff TariffType, tariffValue, weightKg, volumeM3 *decimal.Decimal) *decimal.Decimal {
	if !types.Positive(tariffValue) {
		return nil
	}

	var base *decimal.Decimal
	switch tariff {
	case TariffPerKg:
		base = weightKg
	case TariffPerM3:
		base = volumeM3
	}
	if !types.Positive(base) {
		return nil
	}
	c := types.RoundMoney(tariffValue.Mul(*base))
	return &c
}

// InsuranceCost is insuranceValue*percent/100. It is shown and summed, never stored.
func InsuranceCost(value, percent *decimal.Decimal) *decimal.Decimal {
	if value == nil || percent == nil {
		return nil
	}
	c := types.RoundMoney(value.Mul(*percent).Div(oneHundred))
	return &c
}

// InsuranceCost returns the item's insurance cost, or nil.
func (it *Item) InsuranceCost() *decimal.Decimal {
	return InsuranceCost(it.InsuranceValue, it.InsurancePercent)
}

// DeriveItem recomputes volume, density and delivery cost from the item's inputs.
// Fields that cannot be computed are cleared, never left stale.
func DeriveItem(it Item) Item {
	it.VolumeM3 = Volume(it.LengthCm, it.WidthCm, it.HeightCm)
	it.Density = Density(it.WeightKg, it.VolumeM3)
	it.DeliveryCost = DeliveryCost(it.TariffType, it.TariffValue, it.WeightKg, it.VolumeM3)
	return it
}

// DeriveItems renumbers items 1..n in order, rebuilds their track numbers from
// track and re-derives every computed field.
func DeriveItems(track string, items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.PlaceNumber = i + 1
		it.TrackNumber = ItemTrackNumber(track, it.PlaceNumber)
		out[i] = DeriveItem(it)
	}
	return out
}
