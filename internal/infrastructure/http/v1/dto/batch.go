package dto

import (
	"freightdesk/internal/domain/catalogs/batch"
)

// CreateBatchRequest opens a new forming batch.
type CreateBatchRequest struct {
	Code         string  `json:"code" binding:"required,max=32,excludes=-"`
	Name         string  `json:"name" binding:"max=255"`
	DeliveryType string  `json:"deliveryType" binding:"required,deliverytype"`
	Comment      *string `json:"comment"`
}

// ToEntity creates the batch in FORMING state.
func (r CreateBatchRequest) ToEntity() *batch.Batch {
	b := batch.NewBatch(r.Code, r.Name, batch.DeliveryType(r.DeliveryType))
	b.Comment = r.Comment
	return b
}

// UpdateBatchRequest changes a batch. Version must match the stored one.
type UpdateBatchRequest struct {
	Code         *string `json:"code" binding:"omitempty,max=32,excludes=-"`
	Name         *string `json:"name" binding:"omitempty,max=255"`
	DeliveryType *string `json:"deliveryType" binding:"omitempty,deliverytype"`
	Status       *string `json:"status" binding:"omitempty,batchstatus"`
	Comment      *string `json:"comment"`
	Version      int     `json:"version" binding:"required,min=1"`
}

// ApplyTo copies the set fields onto b.
func (r UpdateBatchRequest) ApplyTo(b *batch.Batch) *batch.Batch {
	if r.Code != nil {
		b.Code = *r.Code
	}
	if r.Name != nil {
		b.Name = *r.Name
	}
	if r.DeliveryType != nil {
		b.DeliveryType = batch.DeliveryType(*r.DeliveryType)
	}
	if r.Status != nil {
		b.Status = batch.Status(*r.Status)
	}
	if r.Comment != nil {
		b.Comment = r.Comment
	}
	b.Version = r.Version
	return b
}

// BatchResponse is the API view of a batch.
type BatchResponse struct {
	CatalogResponse
	DeliveryType string  `json:"deliveryType"`
	Status       string  `json:"status"`
	Comment      *string `json:"comment,omitempty"`
}

// FromBatch maps a batch to its response.
func FromBatch(b *batch.Batch) BatchResponse {
	return BatchResponse{
		CatalogResponse: FromCatalog(b.Catalog),
		DeliveryType:    string(b.DeliveryType),
		Status:          string(b.Status),
		Comment:         b.Comment,
	}
}
