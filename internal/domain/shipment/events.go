package shipment

import (
	"freightdesk/internal/core/id"
)

// AggregateType names shipments in the outbox and the audit trail.
const AggregateType = "shipment"

// Outbox event types.
const (
	EventCreated       = "shipment.created"
	EventStatusChanged = "shipment.status_changed"
	EventDeleted       = "shipment.deleted"
)

// StatusChangedPayload is the body of created and status-changed events.
type StatusChangedPayload struct {
	ShipmentID    id.ID  `json:"shipmentId"`
	InternalTrack string `json:"internalTrack"`
	ClientID      id.ID  `json:"clientId"`
	ClientCode    string `json:"clientCode"`
	From          Status `json:"from,omitempty"`
	To            Status `json:"to"`
	Location      string `json:"location"`
}

func statusPayload(s *Shipment, from Status) StatusChangedPayload {
	return StatusChangedPayload{
		ShipmentID:    s.ID,
		InternalTrack: s.InternalTrack,
		ClientID:      s.ClientID,
		ClientCode:    s.ClientCode,
		From:          from,
		To:            s.Status,
		Location:      s.Location,
	}
}
