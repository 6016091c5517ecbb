package shipment

import (
	"fmt"
	"strconv"
	"strings"

	"freightdesk/internal/core/id"
)

// InvoicePrefix starts every derived invoice number.
const InvoicePrefix = "INV-"

var deliveryTypeCodes = map[DeliveryType]string{
	DeliveryAir:        "A",
	DeliverySea:        "S",
	DeliveryRail:       "R",
	DeliveryMultimodal: "M",
}

// DeliveryTypeCode returns the single-letter code of a delivery type.
// Unknown types map to "A".
func DeliveryTypeCode(dt DeliveryType) string {
	if c, ok := deliveryTypeCodes[dt]; ok {
		return c
	}
	return "A"
}

// DeliveryTypeFromCode is the inverse of DeliveryTypeCode.
func DeliveryTypeFromCode(code string) (DeliveryType, bool) {
	for dt, c := range deliveryTypeCodes {
		if c == code {
			return dt, true
		}
	}
	return "", false
}

// InternalTrack builds "{batch}-{client}{mode}{ordinal:04d}".
// An empty result means the track cannot be determined yet.
func InternalTrack(batchCode, clientCode string, dt DeliveryType, ordinal int64) string {
	batchCode = strings.TrimSpace(batchCode)
	clientCode = strings.TrimSpace(clientCode)
	if batchCode == "" || clientCode == "" || ordinal < 1 {
		return ""
	}
	return fmt.Sprintf("%s-%s%s%04d", batchCode, clientCode, DeliveryTypeCode(dt), ordinal)
}

// BaseTrack strips a trailing "-<digits>" place suffix from an item track.
// A shipment track is returned unchanged.
func BaseTrack(track string) string {
	i := strings.LastIndexByte(track, '-')
	if i < 0 || i == len(track)-1 {
		return track
	}
	// The first segment is the batch code, never a place suffix.
	if strings.IndexByte(track, '-') == i {
		return track
	}
	for _, r := range track[i+1:] {
		if r < '0' || r > '9' {
			return track
		}
	}
	return track[:i]
}

// ItemTrackNumber builds "{internalTrack}-{placeNumber}". Any existing place
// suffix on track is removed first, so renumbering never compounds suffixes.
func ItemTrackNumber(track string, placeNumber int) string {
	base := BaseTrack(track)
	if base == "" || placeNumber < 1 {
		return ""
	}
	return fmt.Sprintf("%s-%d", base, placeNumber)
}

// InvoiceNumber drops the leading batch segment of track and prefixes "INV-".
// Returns "" when track has no "-".
func InvoiceNumber(track string) string {
	_, rest, ok := strings.Cut(track, "-")
	if !ok || rest == "" {
		return ""
	}
	return InvoicePrefix + rest
}

// TrackParts is the decoded form of an internal track.
type TrackParts struct {
	BatchCode    string
	ClientCode   string
	DeliveryType DeliveryType
	Ordinal      int64
}

// DecodeTrack parses a track produced by InternalTrack. Item suffixes are ignored.
func DecodeTrack(track string) (TrackParts, bool) {
	batchCode, rest, ok := strings.Cut(BaseTrack(track), "-")
	if !ok || batchCode == "" {
		return TrackParts{}, false
	}

	// The ordinal is the trailing run of digits; the letter before it is the mode.
	i := len(rest)
	for i > 0 && rest[i-1] >= '0' && rest[i-1] <= '9' {
		i--
	}
	if i < 2 || len(rest)-i < 4 {
		return TrackParts{}, false
	}
	ordinal, err := strconv.ParseInt(rest[i:], 10, 64)
	if err != nil {
		return TrackParts{}, false
	}
	dt, ok := DeliveryTypeFromCode(rest[i-1 : i])
	if !ok {
		return TrackParts{}, false
	}
	return TrackParts{
		BatchCode:    batchCode,
		ClientCode:   rest[:i-1],
		DeliveryType: dt,
		Ordinal:      ordinal,
	}, true
}

// BatchTrack is an assigned track together with the batch it was numbered in.
type BatchTrack struct {
	BatchID id.ID  `db:"batch_id"`
	Track   string `db:"internal_track"`
}

// HighestOrdinals returns the largest decoded ordinal per batch.
// Tracks that do not decode are skipped.
func HighestOrdinals(tracks []BatchTrack) map[id.ID]int64 {
	out := make(map[id.ID]int64)
	for _, bt := range tracks {
		parts, ok := DecodeTrack(bt.Track)
		if !ok {
			continue
		}
		if parts.Ordinal > out[bt.BatchID] {
			out[bt.BatchID] = parts.Ordinal
		}
	}
	return out
}
