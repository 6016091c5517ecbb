// Package audit provides operator stamping of audit fields and the change-record contract.
package audit

import (
	"context"

	appctx "freightdesk/internal/core/context"
)

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the operator in context.
// If no operator is present, this is a no-op.
func EnrichCreatedBy(ctx context.Context, createdBy, updatedBy *string) {
	opID := appctx.GetOperatorID(ctx)
	if opID == "" {
		return
	}
	if createdBy != nil {
		*createdBy = opID
	}
	if updatedBy != nil {
		*updatedBy = opID
	}
}

// EnrichUpdatedBy sets only UpdatedBy from the operator in context.
func EnrichUpdatedBy(ctx context.Context, updatedBy *string) {
	if opID := appctx.GetOperatorID(ctx); opID != "" && updatedBy != nil {
		*updatedBy = opID
	}
}
