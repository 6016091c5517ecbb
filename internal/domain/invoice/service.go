package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/id"
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/audit"
	"freightdesk/internal/domain/shipment"
	"freightdesk/pkg/logger"
)

// Service implements invoice creation and linking with the duplicate guard.
type Service struct {
	repo      Repository
	shipments ShipmentReader
	txManager tx.Manager
	clock     clockz.Clock
}

// NewService creates an invoice service.
func NewService(repo Repository, shipments ShipmentReader, txm tx.Manager, clock clockz.Clock) *Service {
	if txm == nil {
		txm = tx.Nop{}
	}
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{repo: repo, shipments: shipments, txManager: txm, clock: clock}
}

// CreateInput carries the operator-entered invoice fields.
type CreateInput struct {
	ShipmentID *id.ID
	Amount     decimal.Decimal
	// Number is honored verbatim when set; blank derives it from the shipment track.
	Number  string
	Status  Status
	DueDate *time.Time

	// ConfirmDuplicate proceeds past a DuplicateWarning.
	ConfirmDuplicate bool
}

func (s *Service) getShipment(ctx context.Context, shipmentID id.ID) (*shipment.Shipment, error) {
	sh, err := s.shipments.GetByID(ctx, shipmentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("shipment", shipmentID)
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return sh, nil
}

// duplicates returns the active invoices on shipmentID other than exclude.
func (s *Service) duplicates(ctx context.Context, shipmentID, exclude id.ID) ([]*Invoice, error) {
	active, err := s.repo.ListActiveByShipment(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list active invoices: %w", err)
	}
	out := active[:0]
	for _, inv := range active {
		if inv.ID != exclude {
			out = append(out, inv)
		}
	}
	return out, nil
}

func derivedNumber(sh *shipment.Shipment) (string, error) {
	if !sh.HasTrack() {
		return "", apperror.NewFieldValidation("invoiceNumber", "shipment has no track number yet").
			WithDetail("shipmentId", sh.ID)
	}
	n := shipment.InvoiceNumber(sh.InternalTrack)
	if n == "" {
		return "", apperror.NewFieldValidation("invoiceNumber", "cannot derive invoice number from track").
			WithDetail("track", sh.InternalTrack)
	}
	return n, nil
}

// Create creates an invoice, or returns a DuplicateWarning when the shipment
// already has active invoices and the caller has not confirmed.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	inv := NewInvoice(s.clock.Now())
	inv.Amount = in.Amount
	inv.Number = strings.TrimSpace(in.Number)
	inv.DueDate = in.DueDate
	if in.Status != "" {
		inv.Status = in.Status
	}
	audit.EnrichCreatedBy(ctx, &inv.CreatedBy, &inv.UpdatedBy)

	if inv.Amount.IsNegative() {
		return CreateResult{}, apperror.NewFieldValidation("amount", "amount must not be negative").
			WithDetail("value", inv.Amount.String())
	}
	hasShipment := in.ShipmentID != nil && !id.IsNil(*in.ShipmentID)
	if !hasShipment && inv.Number == "" {
		return CreateResult{}, apperror.NewFieldValidation("invoiceNumber", "invoice number is required without a shipment")
	}

	var result CreateResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if hasShipment {
			sh, err := s.getShipment(ctx, *in.ShipmentID)
			if err != nil {
				return err
			}
			inv.ShipmentID = &sh.ID
			if inv.Number == "" {
				if inv.Number, err = derivedNumber(sh); err != nil {
					return err
				}
			}

			if !in.ConfirmDuplicate {
				existing, err := s.duplicates(ctx, sh.ID, id.Nil())
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					result.Warning = &DuplicateWarning{ShipmentID: sh.ID, Existing: existing}
					return nil
				}
			}
		}

		if err := inv.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}

	if result.Warning != nil {
		logger.Info(ctx, "duplicate invoice warning",
			"shipment_id", result.Warning.ShipmentID,
			"existing", len(result.Warning.Existing))
		return result, nil
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"amount", inv.Amount.String())

	return result, nil
}

func (s *Service) get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("invoice", invoiceID)
		}
		return nil, err
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, inv *Invoice) error {
	inv.UpdatedAt = s.clock.Now().UTC()
	audit.EnrichUpdatedBy(ctx, &inv.UpdatedBy)
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, inv)
}

// Link binds an invoice to a shipment with the same soft duplicate guard as Create.
// The number is re-derived when it was blank or was derived from the previous
// shipment's track; a manually entered number is kept.
func (s *Service) Link(ctx context.Context, invoiceID, shipmentID id.ID, confirm bool) (CreateResult, error) {
	var result CreateResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.get(ctx, invoiceID)
		if err != nil {
			return err
		}
		sh, err := s.getShipment(ctx, shipmentID)
		if err != nil {
			return err
		}

		if !confirm && inv.Status.IsActive() {
			existing, err := s.duplicates(ctx, sh.ID, inv.ID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				result.Warning = &DuplicateWarning{ShipmentID: sh.ID, Existing: existing}
				return nil
			}
		}

		rederive, err := s.numberFollowsShipment(ctx, inv, sh.ID)
		if err != nil {
			return err
		}
		inv.ShipmentID = &sh.ID
		if rederive {
			if inv.Number, err = derivedNumber(sh); err != nil {
				return err
			}
		}
		if err := s.save(ctx, inv); err != nil {
			return err
		}
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}

	if result.Invoice != nil {
		logger.Info(ctx, "invoice linked", "id", invoiceID, "shipment_id", shipmentID)
	}
	return result, nil
}

// numberFollowsShipment reports whether linking inv to shipmentID must re-derive its number.
func (s *Service) numberFollowsShipment(ctx context.Context, inv *Invoice, shipmentID id.ID) (bool, error) {
	if inv.Number == "" {
		return true, nil
	}
	if inv.ShipmentID == nil || *inv.ShipmentID == shipmentID {
		return false, nil
	}
	prev, err := s.shipments.GetByID(ctx, *inv.ShipmentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get previous shipment: %w", err)
	}
	return prev.HasTrack() && inv.Number == shipment.InvoiceNumber(prev.InternalTrack), nil
}

// RegenerateNumber re-derives the number from the linked shipment's track.
func (s *Service) RegenerateNumber(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var out *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.get(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.ShipmentID == nil {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "Invoice is not linked to a shipment").
				WithDetail("id", invoiceID)
		}
		sh, err := s.getShipment(ctx, *inv.ShipmentID)
		if err != nil {
			return err
		}
		if inv.Number, err = derivedNumber(sh); err != nil {
			return err
		}
		if err := s.save(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice number regenerated", "id", out.ID, "number", out.Number)
	return out, nil
}

// SetStatus moves an invoice to status. Shipments are never affected.
func (s *Service) SetStatus(ctx context.Context, invoiceID id.ID, status Status) (*Invoice, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldValidation("status", "invalid invoice status").WithDetail("value", string(status))
	}

	var out *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.get(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == status {
			out = inv
			return nil
		}
		inv.Status = status
		if err := s.save(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed", "id", out.ID, "status", out.Status)
	return out, nil
}

// Get returns an invoice by ID.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.get(ctx, invoiceID)
}

// List returns invoices matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
