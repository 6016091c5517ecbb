package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalCost(t *testing.T) {
	items := []Item{
		{DeliveryCost: d("240.00"), InsuranceValue: d("1000"), InsurancePercent: d("1.5")},
		{DeliveryCost: d("0.50")},
		{},
	}
	assertDecimal(t, "280.50", TotalCost(items, d("20"), d("5")))
}

func TestTotalCost_NilWhenZero(t *testing.T) {
	assert.Nil(t, TotalCost(nil, nil, nil))
	assert.Nil(t, TotalCost([]Item{{}}, d("0"), nil))
}

func TestTotalCost_NoDriftOnRepeat(t *testing.T) {
	s := &Shipment{
		InternalTrack: "00010-2661A0001",
		PackingCost:   d("12.345"),
		Items: []Item{{
			LengthCm: d("10"), WidthCm: d("50"), HeightCm: d("100"),
			WeightKg: d("24"), TariffType: TariffPerKg, TariffValue: d("10"),
		}},
	}
	s.Recalculate()
	first := *s.TotalCost
	s.Recalculate()
	assert.True(t, first.Equal(*s.TotalCost))
	assertDecimal(t, "252.35", s.TotalCost)
}

func TestBreakdown(t *testing.T) {
	b := Breakdown([]Item{{DeliveryCost: d("10"), InsuranceValue: d("200"), InsurancePercent: d("2")}}, nil, d("3"))
	assertDecimal(t, "10", &b.Delivery)
	assertDecimal(t, "4", &b.Insurance)
	assertDecimal(t, "0", &b.PackingCost)
	assertDecimal(t, "17", b.Total)
}
