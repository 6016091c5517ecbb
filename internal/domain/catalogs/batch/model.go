// Package batch provides the Batch catalog: groups of shipments consolidated for one onward leg.
package batch

import (
	"context"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/entity"
)

// DeliveryType is the transport mode of a batch or shipment.
type DeliveryType string

const (
	DeliveryAir        DeliveryType = "AIR"
	DeliverySea        DeliveryType = "SEA"
	DeliveryRail       DeliveryType = "RAIL"
	DeliveryMultimodal DeliveryType = "MULTIMODAL"
)

// DeliveryTypes lists every supported mode.
var DeliveryTypes = []DeliveryType{DeliveryAir, DeliverySea, DeliveryRail, DeliveryMultimodal}

// IsValid reports whether dt is a known mode.
func (dt DeliveryType) IsValid() bool {
	switch dt {
	case DeliveryAir, DeliverySea, DeliveryRail, DeliveryMultimodal:
		return true
	}
	return false
}

// Status is the lifecycle state of a batch.
type Status string

const (
	StatusForming Status = "FORMING"
	StatusShipped Status = "SHIPPED"
	StatusClosed  Status = "CLOSED"
)

// IsValid reports whether s is a known batch status.
func (s Status) IsValid() bool {
	switch s {
	case StatusForming, StatusShipped, StatusClosed:
		return true
	}
	return false
}

// Batch groups shipments formed together. Code is the batchId embedded in track numbers.
type Batch struct {
	entity.Catalog

	DeliveryType DeliveryType `db:"delivery_type" json:"deliveryType"`
	Status       Status       `db:"status" json:"status"`
	Comment      *string      `db:"comment" json:"comment,omitempty"`
}

// NewBatch creates a forming batch.
func NewBatch(code, name string, dt DeliveryType) *Batch {
	return &Batch{
		Catalog:      entity.NewCatalog(code, name),
		DeliveryType: dt,
		Status:       StatusForming,
	}
}

// IsForming reports whether the batch still accepts new shipments.
func (b *Batch) IsForming() bool {
	return b.Status == StatusForming
}

// Validate implements entity.Validatable interface.
func (b *Batch) Validate(ctx context.Context) error {
	if b.Name == "" {
		b.Name = b.Code
	}
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !b.DeliveryType.IsValid() {
		return apperror.NewFieldValidation("deliveryType", "invalid delivery type").
			WithDetail("value", string(b.DeliveryType))
	}
	if !b.Status.IsValid() {
		return apperror.NewFieldValidation("status", "invalid batch status").
			WithDetail("value", string(b.Status))
	}
	return nil
}
