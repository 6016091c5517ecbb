package handlers

import (
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/infrastructure/http/v1/dto"
)

// BatchHandler serves the batch catalog.
type BatchHandler = CatalogHandler[*batch.Batch, dto.CreateBatchRequest, dto.UpdateBatchRequest]

// NewBatchHandler creates a batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service) *BatchHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*batch.Batch, dto.CreateBatchRequest, dto.UpdateBatchRequest]{
		Service:      service.CatalogService,
		MapCreateDTO: func(req dto.CreateBatchRequest) *batch.Batch { return req.ToEntity() },
		MapUpdateDTO: func(req dto.UpdateBatchRequest, existing *batch.Batch) *batch.Batch { return req.ApplyTo(existing) },
		MapToDTO:     func(b *batch.Batch) any { return dto.FromBatch(b) },
	})
}
