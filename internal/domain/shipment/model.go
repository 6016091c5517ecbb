// Package shipment implements the shipment lifecycle: track identifiers, per-item
// physical derivation, the status machine and total cost aggregation.
package shipment

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/entity"
	"freightdesk/internal/core/id"
	"freightdesk/internal/domain/catalogs/batch"
)

// DeliveryType is the transport mode of a shipment.
type DeliveryType = batch.DeliveryType

const (
	DeliveryAir        = batch.DeliveryAir
	DeliverySea        = batch.DeliverySea
	DeliveryRail       = batch.DeliveryRail
	DeliveryMultimodal = batch.DeliveryMultimodal
)

// TariffType is the billing basis for an item's delivery cost.
type TariffType string

const (
	TariffPerKg TariffType = "kg"
	TariffPerM3 TariffType = "m3"
)

// IsValid reports whether t is a known tariff basis. Empty is allowed (no tariff).
func (t TariffType) IsValid() bool {
	return t == "" || t == TariffPerKg || t == TariffPerM3
}

// Item is one physical piece of a shipment.
type Item struct {
	ID          id.ID  `db:"id" json:"id"`
	ShipmentID  id.ID  `db:"shipment_id" json:"shipmentId"`
	PlaceNumber int    `db:"place_number" json:"placeNumber"`
	TrackNumber string `db:"track_number" json:"trackNumber"`

	LengthCm *decimal.Decimal `db:"length_cm" json:"lengthCm"`
	WidthCm  *decimal.Decimal `db:"width_cm" json:"widthCm"`
	HeightCm *decimal.Decimal `db:"height_cm" json:"heightCm"`
	WeightKg *decimal.Decimal `db:"weight_kg" json:"weightKg"`

	// Derived; never set by callers.
	VolumeM3 *decimal.Decimal `db:"volume_m3" json:"volumeM3"`
	Density  *decimal.Decimal `db:"density" json:"density"`

	TariffType   TariffType       `db:"tariff_type" json:"tariffType"`
	TariffValue  *decimal.Decimal `db:"tariff_value" json:"tariffValue"`
	DeliveryCost *decimal.Decimal `db:"delivery_cost" json:"deliveryCost"`

	InsuranceValue   *decimal.Decimal `db:"insurance_value" json:"insuranceValue"`
	InsurancePercent *decimal.Decimal `db:"insurance_percent" json:"insurancePercent"`

	Description string `db:"description" json:"description,omitempty"`
	PhotoURL    string `db:"photo_url" json:"photoUrl,omitempty"`
}

// FileURLs is a list of stored file links kept as a JSON array.
type FileURLs []string

// Value implements driver.Valuer.
func (f FileURLs) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *FileURLs) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(f))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(f))
	default:
		return fmt.Errorf("scan file urls: unsupported type %T", src)
	}
}

// Shipment is the unit of cargo movement for one client.
type Shipment struct {
	entity.BaseDocument

	// InternalTrack is assigned once and never changes afterwards.
	InternalTrack string       `db:"internal_track" json:"internalTrack"`
	BatchID       *id.ID       `db:"batch_id" json:"batchId,omitempty"`
	BatchCode     string       `db:"batch_code" json:"batchCode,omitempty"`
	ClientID      id.ID        `db:"client_id" json:"clientId"`
	ClientCode    string       `db:"client_code" json:"clientCode"`
	DeliveryType  DeliveryType `db:"delivery_type" json:"deliveryType"`

	Status   Status `db:"status" json:"status"`
	Location string `db:"location" json:"location"`

	RouteFrom string `db:"route_from" json:"routeFrom,omitempty"`
	RouteTo   string `db:"route_to" json:"routeTo,omitempty"`

	ReceivedAtWarehouse *time.Time `db:"received_at_warehouse" json:"receivedAtWarehouse,omitempty"`
	SentAt              *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	DeliveredAt         *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	ETA                 *time.Time `db:"eta" json:"eta,omitempty"`

	PackingCost       *decimal.Decimal `db:"packing_cost" json:"packingCost,omitempty"`
	LocalDeliveryCost *decimal.Decimal `db:"local_delivery_cost" json:"localDeliveryCost,omitempty"`
	// TotalCost is always the aggregate of items and surcharges.
	TotalCost *decimal.Decimal `db:"total_cost" json:"totalCost,omitempty"`

	Description         string   `db:"description" json:"description,omitempty"`
	MainPhotoURL        string   `db:"main_photo_url" json:"mainPhotoUrl,omitempty"`
	AdditionalFilesURLs FileURLs `db:"additional_files_urls" json:"additionalFilesUrls"`

	Items []Item `db:"-" json:"items"`
}

// NewShipment creates a shipment in CREATED state for a client.
func NewShipment(now time.Time, clientID id.ID) *Shipment {
	return &Shipment{
		BaseDocument: entity.NewBaseDocument(now),
		ClientID:     clientID,
		Status:       StatusCreated,
	}
}

// HasTrack reports whether the internal track has been assigned.
func (s *Shipment) HasTrack() bool {
	return s.InternalTrack != ""
}

// Validate implements entity.Validatable interface.
func (s *Shipment) Validate(ctx context.Context) error {
	if id.IsNil(s.ClientID) {
		return apperror.NewFieldValidation("clientId", "client is required")
	}
	if s.DeliveryType != "" && !s.DeliveryType.IsValid() {
		return apperror.NewFieldValidation("deliveryType", "invalid delivery type").
			WithDetail("value", string(s.DeliveryType))
	}
	if s.Status != "" && !s.Status.IsValid() {
		return apperror.NewFieldValidation("status", "invalid status").
			WithDetail("value", string(s.Status))
	}
	for _, u := range s.AdditionalFilesURLs {
		if strings.TrimSpace(u) == "" {
			return apperror.NewFieldValidation("additionalFilesUrls", "empty file url")
		}
	}
	for i, it := range s.Items {
		if !it.TariffType.IsValid() {
			return apperror.NewFieldValidation("items.tariffType", "invalid tariff type").
				WithDetail("index", i).
				WithDetail("value", string(it.TariffType))
		}
	}
	return nil
}

// StatusHistoryEntry records one status-causing event. Entries are append-only.
type StatusHistoryEntry struct {
	ID          id.ID     `db:"id" json:"id"`
	ShipmentID  id.ID     `db:"shipment_id" json:"shipmentId"`
	Status      Status    `db:"status" json:"status"`
	Location    string    `db:"location" json:"location"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	CreatedBy   string    `db:"created_by" json:"createdBy,omitempty"`
}
