package shipment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/events"
	"freightdesk/internal/core/id"
	"freightdesk/internal/core/numerator"
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/audit"
	"freightdesk/pkg/logger"
)

// Deps wires the collaborators of Service. Nil optional fields get no-op defaults.
type Deps struct {
	Repo      Repository
	Batches   BatchReader
	Clients   ClientReader
	Invoices  InvoiceUnlinker
	Numerator numerator.Generator

	TxManager tx.Manager
	Locker    Locker
	Events    events.Publisher
	Audit     audit.Recorder
	Clock     clockz.Clock
	Policy    Policy
}

// Service orchestrates shipment create/edit: identifiers, derivation,
// the status machine and cost aggregation, persisted as one unit of work.
type Service struct {
	repo      Repository
	batches   BatchReader
	clients   ClientReader
	invoices  InvoiceUnlinker
	numerator numerator.Generator
	txManager tx.Manager
	locker    Locker
	events    events.Publisher
	audit     audit.Recorder
	clock     clockz.Clock
	machine   *StateMachine
	hooks     *domain.HookRegistry[*Shipment]
}

// NewService creates a shipment service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:      d.Repo,
		batches:   d.Batches,
		clients:   d.Clients,
		invoices:  d.Invoices,
		numerator: d.Numerator,
		txManager: d.TxManager,
		locker:    d.Locker,
		events:    d.Events,
		audit:     d.Audit,
		clock:     d.Clock,
		machine:   NewStateMachine(d.Policy),
		hooks:     domain.NewHookRegistry[*Shipment](),
	}
	if s.txManager == nil {
		s.txManager = tx.Nop{}
	}
	if s.locker == nil {
		s.locker = NopLocker{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.audit == nil {
		s.audit = audit.NopRecorder{}
	}
	if s.clock == nil {
		s.clock = clockz.RealClock
	}
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Shipment] {
	return s.hooks
}

// CreateInput carries the operator-entered fields of a new shipment.
type CreateInput struct {
	ClientID     id.ID
	BatchID      *id.ID
	DeliveryType DeliveryType

	RouteFrom string
	RouteTo   string

	PackingCost       *decimal.Decimal
	LocalDeliveryCost *decimal.Decimal

	Description         string
	MainPhotoURL        string
	AdditionalFilesURLs []string

	Items []Item
	Edit  Edit
}

// UpdateInput replaces every editable field of a shipment. Status-bearing
// fields go through Edit so their side effects fire.
type UpdateInput struct {
	// ExpectedVersion is the version the operator loaded; 0 skips the check.
	ExpectedVersion int

	BatchID      *id.ID
	DeliveryType DeliveryType

	RouteFrom string
	RouteTo   string

	PackingCost       *decimal.Decimal
	LocalDeliveryCost *decimal.Decimal

	Description         string
	MainPhotoURL        string
	AdditionalFilesURLs []string

	Items []Item
	Edit  Edit
}

func (s *Service) getClient(ctx context.Context, clientID id.ID) (string, error) {
	if id.IsNil(clientID) {
		return "", apperror.NewFieldValidation("clientId", "client is required")
	}
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewNotFound("client", clientID)
		}
		return "", fmt.Errorf("get client: %w", err)
	}
	return c.Code, nil
}

// assignBatch points sh at batchID. New assignments are only accepted while the batch is forming.
func (s *Service) assignBatch(ctx context.Context, sh *Shipment, batchID *id.ID) error {
	if batchID == nil || id.IsNil(*batchID) {
		sh.BatchID = nil
		sh.BatchCode = ""
		return nil
	}
	if sh.BatchID != nil && *sh.BatchID == *batchID {
		return nil
	}

	b, err := s.batches.GetByID(ctx, *batchID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("batch", *batchID)
		}
		return fmt.Errorf("get batch: %w", err)
	}
	if !b.IsForming() {
		return apperror.NewBatchNotForming(b.Code, string(b.Status))
	}

	sh.BatchID = batchID
	sh.BatchCode = b.Code
	if sh.DeliveryType == "" {
		sh.DeliveryType = b.DeliveryType
	}
	return nil
}

// assignTrack gives sh its internal track once batch and client are known.
// An assigned track is never replaced.
func (s *Service) assignTrack(ctx context.Context, sh *Shipment) error {
	if sh.HasTrack() || sh.BatchID == nil || sh.BatchCode == "" || sh.ClientCode == "" {
		return nil
	}
	ordinal, err := s.numerator.Next(ctx, numerator.ShipmentsInBatch(*sh.BatchID))
	if err != nil {
		return fmt.Errorf("next shipment ordinal: %w", err)
	}
	sh.InternalTrack = InternalTrack(sh.BatchCode, sh.ClientCode, sh.DeliveryType, ordinal)
	return nil
}

func prepareItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if id.IsNil(it.ID) {
			it.ID = id.New()
		}
		it.Description = strings.TrimSpace(it.Description)
		out[i] = it
	}
	return out
}

func stampHistory(entries []StatusHistoryEntry, by string) {
	for i := range entries {
		entries[i].CreatedBy = by
	}
}

// Create registers a new shipment. The track is assigned from the batch counter
// when a batch is given, otherwise on the first edit that sets one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Shipment, error) {
	now := s.clock.Now()
	sh := NewShipment(now, in.ClientID)
	sh.DeliveryType = in.DeliveryType
	sh.RouteFrom = strings.TrimSpace(in.RouteFrom)
	sh.RouteTo = strings.TrimSpace(in.RouteTo)
	sh.PackingCost = in.PackingCost
	sh.LocalDeliveryCost = in.LocalDeliveryCost
	sh.Description = in.Description
	sh.MainPhotoURL = in.MainPhotoURL
	sh.AdditionalFilesURLs = in.AdditionalFilesURLs
	sh.Items = prepareItems(in.Items)
	sh.Location = s.machine.policy.LocationFor(StatusCreated)
	audit.EnrichCreatedBy(ctx, &sh.CreatedBy, &sh.UpdatedBy)

	if err := sh.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, sh); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, err := s.getClient(ctx, in.ClientID)
		if err != nil {
			return err
		}
		sh.ClientCode = code

		if err := s.assignBatch(ctx, sh, in.BatchID); err != nil {
			return err
		}
		if sh.DeliveryType == "" {
			sh.DeliveryType = DeliveryAir
		}
		if err := s.assignTrack(ctx, sh); err != nil {
			return err
		}

		history, err := s.machine.Apply(sh, in.Edit, now)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			history = []StatusHistoryEntry{{
				ID:          id.New(),
				ShipmentID:  sh.ID,
				Status:      sh.Status,
				Location:    sh.Location,
				Description: in.Edit.Description,
				CreatedAt:   now.UTC(),
			}}
		}
		stampHistory(history, sh.CreatedBy)
		sh.Recalculate()

		if err := s.repo.Create(ctx, sh); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}
		if err := s.repo.SaveItems(ctx, sh.ID, sh.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.repo.AppendHistory(ctx, history); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		if err := s.events.Publish(ctx, events.New(AggregateType, sh.ID, EventCreated, statusPayload(sh, ""), now)); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		return s.audit.Record(ctx, audit.NewChange(ctx, AggregateType, sh.ID, audit.ActionCreate, nil, sh, now))
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, sh); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "shipment created",
		"id", sh.ID,
		"track", sh.InternalTrack,
		"items", len(sh.Items))

	return sh, nil
}

// Update applies an operator edit under the per-shipment lock and the optimistic version check.
func (s *Service) Update(ctx context.Context, shipmentID id.ID, in UpdateInput) (*Shipment, error) {
	release, err := s.locker.Acquire(ctx, LockKey(shipmentID))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "release shipment lock", "id", shipmentID, "error", err)
		}
	}()

	now := s.clock.Now()
	var sh *Shipment

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetForUpdate(ctx, shipmentID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("shipment", shipmentID)
			}
			return fmt.Errorf("get shipment: %w", err)
		}
		if in.ExpectedVersion != 0 && in.ExpectedVersion != cur.Version {
			return apperror.NewConcurrentModification("shipment", shipmentID).
				WithDetail("expectedVersion", in.ExpectedVersion).
				WithDetail("actualVersion", cur.Version)
		}
		if cur.Items, err = s.repo.GetItems(ctx, shipmentID); err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		before := *cur
		before.Items = append([]Item(nil), cur.Items...)
		prevStatus := cur.Status

		if in.DeliveryType != "" && in.DeliveryType != cur.DeliveryType {
			// The mode letter is part of the track.
			if cur.HasTrack() {
				return apperror.NewFieldValidation("deliveryType", "cannot change once the internal track is assigned")
			}
			cur.DeliveryType = in.DeliveryType
		}
		cur.RouteFrom = strings.TrimSpace(in.RouteFrom)
		cur.RouteTo = strings.TrimSpace(in.RouteTo)
		cur.PackingCost = in.PackingCost
		cur.LocalDeliveryCost = in.LocalDeliveryCost
		cur.Description = in.Description
		cur.MainPhotoURL = in.MainPhotoURL
		cur.AdditionalFilesURLs = in.AdditionalFilesURLs
		cur.Items = prepareItems(in.Items)

		if err := cur.Validate(ctx); err != nil {
			return err
		}
		if err := s.assignBatch(ctx, cur, in.BatchID); err != nil {
			return err
		}
		if err := s.assignTrack(ctx, cur); err != nil {
			return err
		}

		history, err := s.machine.Apply(cur, in.Edit, now)
		if err != nil {
			return err
		}
		audit.EnrichUpdatedBy(ctx, &cur.UpdatedBy)
		stampHistory(history, cur.UpdatedBy)
		cur.Recalculate()
		cur.UpdatedAt = now.UTC()

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, cur); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, cur); err != nil {
			return err
		}
		if err := s.repo.SaveItems(ctx, cur.ID, cur.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if len(history) > 0 {
			if err := s.repo.AppendHistory(ctx, history); err != nil {
				return fmt.Errorf("append history: %w", err)
			}
		}
		if cur.Status != prevStatus {
			ev := events.New(AggregateType, cur.ID, EventStatusChanged, statusPayload(cur, prevStatus), now)
			if err := s.events.Publish(ctx, ev); err != nil {
				return fmt.Errorf("publish event: %w", err)
			}
		}
		if err := s.audit.Record(ctx, audit.NewChange(ctx, AggregateType, cur.ID, audit.ActionUpdate, &before, cur, now)); err != nil {
			return err
		}
		sh = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, sh); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "shipment updated",
		"id", sh.ID,
		"track", sh.InternalTrack,
		"status", sh.Status,
		"version", sh.Version)

	return sh, nil
}

// Delete removes a shipment with its items and history and detaches its invoices.
func (s *Service) Delete(ctx context.Context, shipmentID id.ID) error {
	release, err := s.locker.Acquire(ctx, LockKey(shipmentID))
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "release shipment lock", "id", shipmentID, "error", err)
		}
	}()

	now := s.clock.Now()
	var unlinked int64

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sh, err := s.repo.GetForUpdate(ctx, shipmentID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("shipment", shipmentID)
			}
			return fmt.Errorf("get shipment: %w", err)
		}
		if err := s.hooks.Run(ctx, domain.BeforeDelete, sh); err != nil {
			return err
		}

		if s.invoices != nil {
			if unlinked, err = s.invoices.UnlinkShipment(ctx, shipmentID); err != nil {
				return fmt.Errorf("unlink invoices: %w", err)
			}
		}
		if err := s.repo.DeleteItems(ctx, shipmentID); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := s.repo.DeleteHistory(ctx, shipmentID); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if err := s.repo.Delete(ctx, shipmentID); err != nil {
			return fmt.Errorf("delete shipment: %w", err)
		}
		if err := s.events.Publish(ctx, events.New(AggregateType, sh.ID, EventDeleted, statusPayload(sh, sh.Status), now)); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		return s.audit.Record(ctx, audit.NewChange(ctx, AggregateType, sh.ID, audit.ActionDelete, sh, nil, now))
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "shipment deleted", "id", shipmentID, "unlinked_invoices", unlinked)
	return nil
}

// Get returns a shipment with its items.
func (s *Service) Get(ctx context.Context, shipmentID id.ID) (*Shipment, error) {
	var sh *Shipment
	err := tx.RunReadOnly(ctx, s.txManager, func(ctx context.Context) error {
		var err error
		sh, err = s.repo.GetByID(ctx, shipmentID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("shipment", shipmentID)
			}
			return err
		}

		items, err := s.repo.GetItems(ctx, shipmentID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		sh.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// List returns shipments without items.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shipment], error) {
	return s.repo.List(ctx, filter)
}

// History returns status history newest first.
func (s *Service) History(ctx context.Context, shipmentID id.ID) ([]StatusHistoryEntry, error) {
	var entries []StatusHistoryEntry
	err := tx.RunReadOnly(ctx, s.txManager, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, shipmentID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("shipment", shipmentID)
			}
			return err
		}
		var err error
		entries, err = s.repo.ListHistory(ctx, shipmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Preview is the result of a dry-run derivation.
type Preview struct {
	Items     []Item        `json:"items"`
	Breakdown CostBreakdown `json:"breakdown"`
}

// Preview derives items and the cost breakdown without persisting anything.
func (s *Service) Preview(track string, items []Item, packingCost, localDeliveryCost *decimal.Decimal) Preview {
	derived := DeriveItems(track, items)
	return Preview{
		Items:     derived,
		Breakdown: Breakdown(derived, packingCost, localDeliveryCost),
	}
}
