package shipment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightdesk/internal/core/id"
)

func TestInternalTrack(t *testing.T) {
	tests := []struct {
		name    string
		batch   string
		client  string
		dt      DeliveryType
		ordinal int64
		want    string
	}{
		{"first air shipment", "00010", "2661", DeliveryAir, 1, "00010-2661A0001"},
		{"sea", "00010", "2661", DeliverySea, 12, "00010-2661S0012"},
		{"rail", "7", "C1", DeliveryRail, 300, "7-C1R0300"},
		{"multimodal", "00011", "9", DeliveryMultimodal, 9999, "00011-9M9999"},
		{"unknown mode falls back to A", "00010", "2661", DeliveryType("TRUCK"), 2, "00010-2661A0002"},
		{"ordinal past four digits", "00010", "2661", DeliveryAir, 12345, "00010-2661A12345"},
		{"missing batch", "", "2661", DeliveryAir, 1, ""},
		{"missing client", "00010", "  ", DeliveryAir, 1, ""},
		{"no ordinal", "00010", "2661", DeliveryAir, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InternalTrack(tt.batch, tt.client, tt.dt, tt.ordinal))
		})
	}
}

func TestDecodeTrack_RoundTripsEveryMode(t *testing.T) {
	for _, dt := range []DeliveryType{DeliveryAir, DeliverySea, DeliveryRail, DeliveryMultimodal} {
		for _, ordinal := range []int64{1, 42, 9999, 10000} {
			track := InternalTrack("00010", "2661", dt, ordinal)
			parts, ok := DecodeTrack(track)
			require.True(t, ok, track)
			assert.Equal(t, dt, parts.DeliveryType, track)
			assert.Equal(t, "00010", parts.BatchCode)
			assert.Equal(t, "2661", parts.ClientCode)
			assert.Equal(t, ordinal, parts.Ordinal)
		}
	}
}

func TestDecodeTrack_IgnoresItemSuffix(t *testing.T) {
	parts, ok := DecodeTrack("00010-AB12S0003-4")
	require.True(t, ok)
	assert.Equal(t, "AB12", parts.ClientCode)
	assert.Equal(t, DeliverySea, parts.DeliveryType)
	assert.Equal(t, int64(3), parts.Ordinal)
}

func TestDecodeTrack_Rejects(t *testing.T) {
	for _, track := range []string{"", "nodash", "00010-", "00010-A0001", "00010-2661X0001", "00010-2661A01"} {
		_, ok := DecodeTrack(track)
		assert.False(t, ok, track)
	}
}

func TestItemTrackNumber(t *testing.T) {
	assert.Equal(t, "00010-2661A0001-1", ItemTrackNumber("00010-2661A0001", 1))
	assert.Equal(t, "00010-2661A0001-3", ItemTrackNumber("00010-2661A0001-7", 3))
	assert.Equal(t, "", ItemTrackNumber("", 1))
	assert.Equal(t, "", ItemTrackNumber("00010-2661A0001", 0))
}

func TestItemTrackNumber_RenumberingNeverCompounds(t *testing.T) {
	track := "00010-2661A0001"
	item := ItemTrackNumber(track, 1)
	for i := 0; i < 5; i++ {
		item = ItemTrackNumber(item, 2)
	}
	assert.Equal(t, "00010-2661A0001-2", item)
	assert.Equal(t, 2, strings.Count(item, "-"))
}

func TestBaseTrack(t *testing.T) {
	assert.Equal(t, "00010-2661A0001", BaseTrack("00010-2661A0001"))
	assert.Equal(t, "00010-2661A0001", BaseTrack("00010-2661A0001-12"))
	assert.Equal(t, "00010-2661A0001-x", BaseTrack("00010-2661A0001-x"))
	// A numeric post-batch segment is not a place suffix.
	assert.Equal(t, "00010-0001", BaseTrack("00010-0001"))
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2661A0001", InvoiceNumber("00010-2661A0001"))
	assert.Equal(t, "", InvoiceNumber("2661A0001"))
	assert.Equal(t, "", InvoiceNumber(""))
}

func TestInvoiceNumber_RoundTrip(t *testing.T) {
	for _, track := range []string{"00010-2661A0001", "1-X-Y", "00010-2661A0001-2"} {
		num := InvoiceNumber(track)
		_, rest, _ := strings.Cut(track, "-")
		assert.Equal(t, rest, strings.TrimPrefix(num, InvoicePrefix), track)
	}
}

func TestScenario_FirstShipmentInBatch(t *testing.T) {
	track := InternalTrack("00010", "2661", DeliveryAir, 1)
	assert.Equal(t, "00010-2661A0001", track)
	assert.Equal(t, "00010-2661A0001-1", ItemTrackNumber(track, 1))
	assert.Equal(t, "INV-2661A0001", InvoiceNumber(track))
}

func TestHighestOrdinals(t *testing.T) {
	air, sea := id.New(), id.New()
	got := HighestOrdinals([]BatchTrack{
		{BatchID: air, Track: "00010-2661A0002"},
		{BatchID: air, Track: "00010-3120A0007"},
		{BatchID: air, Track: "00010-2661A0003"},
		{BatchID: sea, Track: "00011-2661S0001"},
		{BatchID: sea, Track: "legacy"},
	})

	assert.Equal(t, map[id.ID]int64{air: 7, sea: 1}, got)
	assert.Empty(t, HighestOrdinals(nil))
}
