package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
	"freightdesk/internal/core/types"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/shipment"
)

// ItemRequest is one physical piece as entered by the operator.
// Volume, density and delivery cost are always derived server-side.
type ItemRequest struct {
	LengthCm types.Measure `json:"lengthCm"`
	WidthCm  types.Measure `json:"widthCm"`
	HeightCm types.Measure `json:"heightCm"`
	WeightKg types.Measure `json:"weightKg"`

	TariffType  string        `json:"tariffType" binding:"omitempty,tarifftype"`
	TariffValue types.Measure `json:"tariffValue"`

	InsuranceValue   types.Measure `json:"insuranceValue"`
	InsurancePercent types.Measure `json:"insurancePercent"`

	Description string `json:"description" binding:"max=1000"`
	PhotoURL    string `json:"photoUrl" binding:"max=2048"`
}

// ToItem converts the request into an underived item.
// Blank or non-numeric measures arrive as nil, so their derived fields clear.
func (r ItemRequest) ToItem() shipment.Item {
	return shipment.Item{
		LengthCm:         r.LengthCm.Decimal(),
		WidthCm:          r.WidthCm.Decimal(),
		HeightCm:         r.HeightCm.Decimal(),
		WeightKg:         r.WeightKg.Decimal(),
		TariffType:       shipment.TariffType(r.TariffType),
		TariffValue:      r.TariffValue.Decimal(),
		InsuranceValue:   r.InsuranceValue.Decimal(),
		InsurancePercent: r.InsurancePercent.Decimal(),
		Description:      r.Description,
		PhotoURL:         r.PhotoURL,
	}
}

func toItems(reqs []ItemRequest) []shipment.Item {
	items := make([]shipment.Item, len(reqs))
	for i, r := range reqs {
		items[i] = r.ToItem()
	}
	return items
}

// StatusEditRequest carries the fields that drive the status machine.
// Dates are calendar dates ("2024-03-01") or RFC 3339 timestamps; "" clears.
type StatusEditRequest struct {
	Status            *string `json:"status" binding:"omitempty,shipmentstatus"`
	Location          *string `json:"location" binding:"omitempty,max=255"`
	StatusDescription string  `json:"statusDescription" binding:"max=1000"`

	ReceivedAtWarehouse *string `json:"receivedAtWarehouse"`
	SentAt              *string `json:"sentAt"`
	DeliveredAt         *string `json:"deliveredAt"`
	ETA                 *string `json:"eta"`
}

// ToEdit converts the request into a state machine edit.
func (r StatusEditRequest) ToEdit() shipment.Edit {
	e := shipment.Edit{
		Location:            r.Location,
		Description:         r.StatusDescription,
		ReceivedAtWarehouse: r.ReceivedAtWarehouse,
		SentAt:              r.SentAt,
		DeliveredAt:         r.DeliveredAt,
		ETA:                 r.ETA,
	}
	if r.Status != nil {
		st := shipment.Status(*r.Status)
		e.Status = &st
	}
	return e
}

// ShipmentFieldsRequest holds the editable non-status fields.
type ShipmentFieldsRequest struct {
	BatchID      *string `json:"batchId"`
	DeliveryType string  `json:"deliveryType" binding:"omitempty,deliverytype"`

	RouteFrom string `json:"routeFrom" binding:"max=255"`
	RouteTo   string `json:"routeTo" binding:"max=255"`

	PackingCost       types.Measure `json:"packingCost"`
	LocalDeliveryCost types.Measure `json:"localDeliveryCost"`

	Description         string   `json:"description" binding:"max=4000"`
	MainPhotoURL        string   `json:"mainPhotoUrl" binding:"max=2048"`
	AdditionalFilesURLs []string `json:"additionalFilesUrls" binding:"omitempty,dive,required,max=2048"`

	Items []ItemRequest `json:"items" binding:"omitempty,dive"`
}

// CreateShipmentRequest registers a shipment for a client.
type CreateShipmentRequest struct {
	ClientID string `json:"clientId" binding:"required,uuid"`
	ShipmentFieldsRequest
	StatusEditRequest
}

// ToInput converts the request into service input.
func (r CreateShipmentRequest) ToInput() (shipment.CreateInput, error) {
	clientID, err := id.Parse(r.ClientID)
	if err != nil {
		return shipment.CreateInput{}, apperror.NewFieldValidation("clientId", "invalid id format")
	}
	batchID, err := ParseOptionalID("batchId", r.BatchID)
	if err != nil {
		return shipment.CreateInput{}, err
	}
	return shipment.CreateInput{
		ClientID:            clientID,
		BatchID:             batchID,
		DeliveryType:        batch.DeliveryType(r.DeliveryType),
		RouteFrom:           r.RouteFrom,
		RouteTo:             r.RouteTo,
		PackingCost:         r.PackingCost.Decimal(),
		LocalDeliveryCost:   r.LocalDeliveryCost.Decimal(),
		Description:         r.Description,
		MainPhotoURL:        r.MainPhotoURL,
		AdditionalFilesURLs: r.AdditionalFilesURLs,
		Items:               toItems(r.Items),
		Edit:                r.ToEdit(),
	}, nil
}

// UpdateShipmentRequest replaces the editable fields of a shipment.
// Version is the version the operator loaded; 0 skips the check.
type UpdateShipmentRequest struct {
	Version int `json:"version" binding:"omitempty,min=0"`
	ShipmentFieldsRequest
	StatusEditRequest
}

// ToInput converts the request into service input.
func (r UpdateShipmentRequest) ToInput() (shipment.UpdateInput, error) {
	batchID, err := ParseOptionalID("batchId", r.BatchID)
	if err != nil {
		return shipment.UpdateInput{}, err
	}
	return shipment.UpdateInput{
		ExpectedVersion:     r.Version,
		BatchID:             batchID,
		DeliveryType:        batch.DeliveryType(r.DeliveryType),
		RouteFrom:           r.RouteFrom,
		RouteTo:             r.RouteTo,
		PackingCost:         r.PackingCost.Decimal(),
		LocalDeliveryCost:   r.LocalDeliveryCost.Decimal(),
		Description:         r.Description,
		MainPhotoURL:        r.MainPhotoURL,
		AdditionalFilesURLs: r.AdditionalFilesURLs,
		Items:               toItems(r.Items),
		Edit:                r.ToEdit(),
	}, nil
}

// ShipmentListQuery filters the shipment list.
type ShipmentListQuery struct {
	ListQuery
	BatchID  string `form:"batchId" binding:"omitempty,uuid"`
	ClientID string `form:"clientId" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,shipmentstatus"`
}

// ToFilter converts the query into a shipment filter.
func (q ShipmentListQuery) ToFilter() shipment.ListFilter {
	f := shipment.ListFilter{ListFilter: q.ListQuery.ToFilter("-created_at")}
	if q.BatchID != "" {
		v, _ := id.Parse(q.BatchID)
		f.BatchID = &v
	}
	if q.ClientID != "" {
		v, _ := id.Parse(q.ClientID)
		f.ClientID = &v
	}
	if q.Status != "" {
		st := shipment.Status(q.Status)
		f.Status = &st
	}
	return f
}

// DeriveRequest asks for a dry-run derivation of items and totals.
type DeriveRequest struct {
	Track             string           `json:"track" binding:"max=64"`
	Items             []ItemRequest `json:"items" binding:"omitempty,dive"`
	PackingCost       types.Measure `json:"packingCost"`
	LocalDeliveryCost types.Measure `json:"localDeliveryCost"`
}

// ItemsOf returns the underived items of the request.
func (r DeriveRequest) ItemsOf() []shipment.Item {
	return toItems(r.Items)
}

// ItemResponse is a derived item with its computed insurance cost.
type ItemResponse struct {
	shipment.Item
	InsuranceCost *decimal.Decimal `json:"insuranceCost"`
}

// FromItems maps items to their responses.
func FromItems(items []shipment.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ItemResponse{Item: items[i], InsuranceCost: items[i].InsuranceCost()}
	}
	return out
}

// ShipmentResponse is the API view of a shipment.
type ShipmentResponse struct {
	DocumentResponse

	InternalTrack string `json:"internalTrack"`
	BatchID       string `json:"batchId,omitempty"`
	BatchCode     string `json:"batchCode,omitempty"`
	ClientID      string `json:"clientId"`
	ClientCode    string `json:"clientCode"`
	DeliveryType  string `json:"deliveryType"`

	Status      string `json:"status"`
	StatusOrder int    `json:"statusOrder"`
	Location    string `json:"location"`

	RouteFrom string `json:"routeFrom,omitempty"`
	RouteTo   string `json:"routeTo,omitempty"`

	ReceivedAtWarehouse *time.Time `json:"receivedAtWarehouse,omitempty"`
	SentAt              *time.Time `json:"sentAt,omitempty"`
	DeliveredAt         *time.Time `json:"deliveredAt,omitempty"`
	ETA                 *time.Time `json:"eta,omitempty"`

	PackingCost       *decimal.Decimal `json:"packingCost,omitempty"`
	LocalDeliveryCost *decimal.Decimal `json:"localDeliveryCost,omitempty"`
	TotalCost         *decimal.Decimal `json:"totalCost"`

	Description         string   `json:"description,omitempty"`
	MainPhotoURL        string   `json:"mainPhotoUrl,omitempty"`
	AdditionalFilesURLs []string `json:"additionalFilesUrls"`

	Items []ItemResponse `json:"items"`
}

// FromShipment maps a shipment to its response.
func FromShipment(s *shipment.Shipment) ShipmentResponse {
	resp := ShipmentResponse{
		DocumentResponse:    FromDocument(s.BaseDocument),
		InternalTrack:       s.InternalTrack,
		BatchCode:           s.BatchCode,
		ClientID:            s.ClientID.String(),
		ClientCode:          s.ClientCode,
		DeliveryType:        string(s.DeliveryType),
		Status:              string(s.Status),
		StatusOrder:         s.Status.Order(),
		Location:            s.Location,
		RouteFrom:           s.RouteFrom,
		RouteTo:             s.RouteTo,
		ReceivedAtWarehouse: s.ReceivedAtWarehouse,
		SentAt:              s.SentAt,
		DeliveredAt:         s.DeliveredAt,
		ETA:                 s.ETA,
		PackingCost:         s.PackingCost,
		LocalDeliveryCost:   s.LocalDeliveryCost,
		TotalCost:           s.TotalCost,
		Description:         s.Description,
		MainPhotoURL:        s.MainPhotoURL,
		AdditionalFilesURLs: []string(s.AdditionalFilesURLs),
		Items:               FromItems(s.Items),
	}
	if s.BatchID != nil {
		resp.BatchID = s.BatchID.String()
	}
	if resp.AdditionalFilesURLs == nil {
		resp.AdditionalFilesURLs = []string{}
	}
	return resp
}

// HistoryEntryResponse is one status history row.
type HistoryEntryResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

// FromHistory maps history entries, keeping their order.
func FromHistory(entries []shipment.StatusHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			ID:          e.ID.String(),
			Status:      string(e.Status),
			Location:    e.Location,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
			CreatedBy:   e.CreatedBy,
		}
	}
	return out
}

// DeriveResponse is the dry-run result.
type DeriveResponse struct {
	Items     []ItemResponse         `json:"items"`
	Breakdown shipment.CostBreakdown `json:"breakdown"`
}

// FromPreview maps a preview to its response.
func FromPreview(p shipment.Preview) DeriveResponse {
	return DeriveResponse{Items: FromItems(p.Items), Breakdown: p.Breakdown}
}
