package shipment

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/events"
	"freightdesk/internal/core/id"
	"freightdesk/internal/core/numerator"
	"freightdesk/internal/core/tx"
	"freightdesk/internal/domain"
	"freightdesk/internal/domain/audit"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
)

type memRepo struct {
	shipments map[id.ID]Shipment
	items     map[id.ID][]Item
	history   map[id.ID][]StatusHistoryEntry
}

func newMemRepo() *memRepo {
	return &memRepo{
		shipments: map[id.ID]Shipment{},
		items:     map[id.ID][]Item{},
		history:   map[id.ID][]StatusHistoryEntry{},
	}
}

func (r *memRepo) Create(_ context.Context, s *Shipment) error {
	c := *s
	c.Items = nil
	r.shipments[s.ID] = c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, shipmentID id.ID) (*Shipment, error) {
	s, ok := r.shipments[shipmentID]
	if !ok {
		return nil, apperror.NewNotFound("shipments", shipmentID)
	}
	return &s, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, shipmentID id.ID) (*Shipment, error) {
	return r.GetByID(ctx, shipmentID)
}

func (r *memRepo) Update(_ context.Context, s *Shipment) error {
	cur, ok := r.shipments[s.ID]
	if !ok {
		return apperror.NewNotFound("shipments", s.ID)
	}
	if cur.Version != s.Version {
		return apperror.NewConcurrentModification("shipment", s.ID)
	}
	s.Version++
	c := *s
	c.Items = nil
	r.shipments[s.ID] = c
	return nil
}

func (r *memRepo) Delete(_ context.Context, shipmentID id.ID) error {
	delete(r.shipments, shipmentID)
	return nil
}

func (r *memRepo) GetItems(_ context.Context, shipmentID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[shipmentID]...), nil
}

func (r *memRepo) SaveItems(_ context.Context, shipmentID id.ID, items []Item) error {
	r.items[shipmentID] = append([]Item(nil), items...)
	return nil
}

func (r *memRepo) DeleteItems(_ context.Context, shipmentID id.ID) error {
	delete(r.items, shipmentID)
	return nil
}

func (r *memRepo) AppendHistory(_ context.Context, entries []StatusHistoryEntry) error {
	for _, e := range entries {
		r.history[e.ShipmentID] = append(r.history[e.ShipmentID], e)
	}
	return nil
}

func (r *memRepo) ListHistory(_ context.Context, shipmentID id.ID) ([]StatusHistoryEntry, error) {
	out := append([]StatusHistoryEntry(nil), r.history[shipmentID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return id.Compare(out[i].ID, out[j].ID) > 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memRepo) DeleteHistory(_ context.Context, shipmentID id.ID) error {
	delete(r.history, shipmentID)
	return nil
}

func (r *memRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*Shipment], error) {
	var out []*Shipment
	for _, s := range r.shipments {
		s := s
		if filter.BatchID != nil && (s.BatchID == nil || *s.BatchID != *filter.BatchID) {
			continue
		}
		out = append(out, &s)
	}
	return domain.ListResult[*Shipment]{Items: out, TotalCount: int64(len(out))}, nil
}

type catalogs struct {
	batches map[id.ID]*batch.Batch
	clients map[id.ID]*client.Client
}

type batchReader struct{ *catalogs }

func (r batchReader) GetByID(_ context.Context, batchID id.ID) (*batch.Batch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("batches", batchID)
	}
	return b, nil
}

type clientReader struct{ *catalogs }

func (r clientReader) GetByID(_ context.Context, clientID id.ID) (*client.Client, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, apperror.NewNotFound("clients", clientID)
	}
	return c, nil
}

type unlinker struct {
	calls []id.ID
}

func (u *unlinker) UnlinkShipment(_ context.Context, shipmentID id.ID) (int64, error) {
	u.calls = append(u.calls, shipmentID)
	return 1, nil
}

type recordingAudit struct {
	changes []audit.Change
}

func (a *recordingAudit) Record(_ context.Context, c audit.Change) error {
	a.changes = append(a.changes, c)
	return nil
}

type lockSpy struct {
	acquired []string
	released int
	err      error
}

func (l *lockSpy) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired = append(l.acquired, key)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

type txSpy struct {
	readOnly, readWrite int
}

func (s *txSpy) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	s.readWrite++
	return fn(ctx)
}

func (s *txSpy) ReadOnly(ctx context.Context, fn func(context.Context) error) error {
	s.readOnly++
	return fn(ctx)
}

var _ tx.ReadOnlyManager = (*txSpy)(nil)

type fixture struct {
	svc      *Service
	repo     *memRepo
	events   *events.Recorder
	audit    *recordingAudit
	locks    *lockSpy
	invoices *unlinker
	clock    *clockz.FakeClock
	txm      *txSpy

	forming *batch.Batch
	shipped *batch.Batch
	client  *client.Client
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		events:   &events.Recorder{},
		audit:    &recordingAudit{},
		locks:    &lockSpy{},
		invoices: &unlinker{},
		clock:    clockz.NewFakeClock(),
		txm:      &txSpy{},
		forming:  batch.NewBatch("00010", "", batch.DeliveryAir),
		shipped:  batch.NewBatch("00009", "", batch.DeliverySea),
		client:   client.NewClient("2661", "Acme"),
	}
	f.shipped.Status = batch.StatusShipped

	cats := &catalogs{
		batches: map[id.ID]*batch.Batch{f.forming.ID: f.forming, f.shipped.ID: f.shipped},
		clients: map[id.ID]*client.Client{f.client.ID: f.client},
	}
	f.svc = NewService(Deps{
		Repo:      f.repo,
		Batches:   batchReader{cats},
		Clients:   clientReader{cats},
		Invoices:  f.invoices,
		Numerator: numerator.NewMemoryGenerator(),
		TxManager: f.txm,
		Locker:    f.locks,
		Events:    f.events,
		Audit:     f.audit,
		Clock:     f.clock,
	})
	return f
}

func (f *fixture) create(t *testing.T, in CreateInput) *Shipment {
	t.Helper()
	if id.IsNil(in.ClientID) {
		in.ClientID = f.client.ID
	}
	s, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return s
}

func TestService_Create_FirstShipmentInBatch(t *testing.T) {
	f := newFixture()

	s := f.create(t, CreateInput{
		BatchID: &f.forming.ID,
		Items: []Item{{
			LengthCm: d("10"), WidthCm: d("50"), HeightCm: d("100"),
			WeightKg: d("24"), TariffType: TariffPerKg, TariffValue: d("10"),
		}},
	})

	assert.Equal(t, "00010-2661A0001", s.InternalTrack)
	assert.Equal(t, "2661", s.ClientCode)
	assert.Equal(t, "00010", s.BatchCode)
	assert.Equal(t, DeliveryAir, s.DeliveryType, "inherited from batch")
	assert.Equal(t, StatusCreated, s.Status)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "00010-2661A0001-1", s.Items[0].TrackNumber)
	assert.Equal(t, s.ID, s.Items[0].ShipmentID)
	assertDecimal(t, "0.05", s.Items[0].VolumeM3)
	assertDecimal(t, "240", s.TotalCost)

	assert.Len(t, f.repo.items[s.ID], 1)
	assert.Len(t, f.repo.history[s.ID], 1)
	assert.Equal(t, []string{EventCreated}, f.events.Types())
	require.Len(t, f.audit.changes, 1)
	assert.Equal(t, audit.ActionCreate, f.audit.changes[0].Action)
}

func TestService_Create_OrdinalsPerBatch(t *testing.T) {
	f := newFixture()

	a := f.create(t, CreateInput{BatchID: &f.forming.ID})
	b := f.create(t, CreateInput{BatchID: &f.forming.ID, DeliveryType: DeliverySea})

	assert.Equal(t, "00010-2661A0001", a.InternalTrack)
	assert.Equal(t, "00010-2661S0002", b.InternalTrack)
}

func TestService_Create_WithoutBatchHasNoTrack(t *testing.T) {
	f := newFixture()

	s := f.create(t, CreateInput{})
	assert.Empty(t, s.InternalTrack)
	assert.Nil(t, s.BatchID)
}

func TestService_Create_RejectsNonFormingBatch(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{ClientID: f.client.ID, BatchID: &f.shipped.ID})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBatchClosed))
	assert.Empty(t, f.repo.shipments)
}

func TestService_Create_NotFound(t *testing.T) {
	f := newFixture()
	missing := id.New()

	_, err := f.svc.Create(context.Background(), CreateInput{ClientID: missing})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "client", appErr.Details["entity"])

	_, err = f.svc.Create(context.Background(), CreateInput{ClientID: f.client.ID, BatchID: &missing})
	appErr, _ = apperror.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "batch", appErr.Details["entity"])
}

func TestService_Create_ReceivedAtMovesToChinaWarehouse(t *testing.T) {
	f := newFixture()

	s := f.create(t, CreateInput{
		BatchID: &f.forming.ID,
		Edit:    Edit{ReceivedAtWarehouse: str("2024-05-18")},
	})
	assert.Equal(t, StatusReceivedCN, s.Status)
	assert.Equal(t, "China warehouse", s.Location)
	require.Len(t, f.repo.history[s.ID], 1)
	assert.Equal(t, StatusReceivedCN, f.repo.history[s.ID][0].Status)
}

func TestService_Create_InvalidDate(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateInput{
		ClientID: f.client.ID,
		Edit:     Edit{SentAt: str("soon")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, f.repo.shipments)
}

func TestService_Update_StatusChange(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID, Items: []Item{{WeightKg: d("5")}}})
	f.events.Events = nil

	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(context.Background(), s.ID, UpdateInput{
		ExpectedVersion: s.Version,
		BatchID:         &f.forming.ID,
		Items:           []Item{{WeightKg: d("5"), TariffType: TariffPerKg, TariffValue: d("3")}, {WeightKg: d("1")}},
		Edit:            Edit{Status: st(StatusInTransit), SentAt: str("2024-06-01")},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusInTransit, updated.Status)
	assert.Equal(t, "In transit", updated.Location)
	assert.Equal(t, "00010-2661A0001", updated.InternalTrack, "track is immutable")
	assert.Equal(t, s.Version+1, updated.Version)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, "00010-2661A0001-2", updated.Items[1].TrackNumber)
	assertDecimal(t, "15", updated.TotalCost)
	require.NotNil(t, updated.ETA)

	history, err := f.svc.History(context.Background(), s.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, StatusInTransit, history[0].Status, "newest first")

	require.Len(t, f.events.Events, 1)
	payload := f.events.Events[0].Payload.(StatusChangedPayload)
	assert.Equal(t, StatusCreated, payload.From)
	assert.Equal(t, StatusInTransit, payload.To)

	assert.Equal(t, []string{LockKey(s.ID)}, f.locks.acquired)
	assert.Equal(t, 1, f.locks.released)
}

func TestService_Update_StaleVersion(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID})

	_, err := f.svc.Update(context.Background(), s.ID, UpdateInput{ExpectedVersion: s.Version, BatchID: &f.forming.ID})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), s.ID, UpdateInput{ExpectedVersion: s.Version, BatchID: &f.forming.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
	assert.Equal(t, 2, f.locks.released, "lock released on failure too")
}

func TestService_Update_LockHeld(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{})
	f.locks.err = apperror.NewShipmentLocked(s.ID)

	_, err := f.svc.Update(context.Background(), s.ID, UpdateInput{})
	assert.True(t, apperror.HasCode(err, apperror.CodeShipmentLocked))
}

func TestService_Update_AssignsTrackOnFirstBatch(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{})
	require.Empty(t, s.InternalTrack)

	updated, err := f.svc.Update(context.Background(), s.ID, UpdateInput{BatchID: &f.forming.ID})
	require.NoError(t, err)
	assert.Equal(t, "00010-2661A0001", updated.InternalTrack)
}

func TestService_Update_DeliveryTypeFrozenByTrack(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID})
	require.Equal(t, "00010-2661A0001", s.InternalTrack)

	_, err := f.svc.Update(context.Background(), s.ID, UpdateInput{BatchID: &f.forming.ID, DeliveryType: DeliverySea})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	same, err := f.svc.Update(context.Background(), s.ID, UpdateInput{BatchID: &f.forming.ID, DeliveryType: DeliveryAir})
	require.NoError(t, err)
	parts, ok := DecodeTrack(same.InternalTrack)
	require.True(t, ok)
	assert.Equal(t, same.DeliveryType, parts.DeliveryType)
}

func TestService_Update_DeliveryTypeFreeBeforeTrack(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{})

	updated, err := f.svc.Update(context.Background(), s.ID, UpdateInput{DeliveryType: DeliveryRail})
	require.NoError(t, err)
	assert.Equal(t, DeliveryRail, updated.DeliveryType)
}

func TestService_Update_MoveToNonFormingBatchRejected(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID})

	_, err := f.svc.Update(context.Background(), s.ID, UpdateInput{BatchID: &f.shipped.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeBatchClosed))
}

func TestService_Update_KeepingClosedBatchIsAllowed(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID})
	f.forming.Status = batch.StatusClosed

	_, err := f.svc.Update(context.Background(), s.ID, UpdateInput{BatchID: &f.forming.ID})
	assert.NoError(t, err)
}

func TestService_Update_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Update(context.Background(), id.New(), UpdateInput{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID, Items: []Item{{}}})

	require.NoError(t, f.svc.Delete(context.Background(), s.ID))
	assert.Empty(t, f.repo.shipments)
	assert.Empty(t, f.repo.items)
	assert.Empty(t, f.repo.history)
	assert.Equal(t, []id.ID{s.ID}, f.invoices.calls)

	_, err := f.svc.Get(context.Background(), s.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Get_LoadsItems(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID, Items: []Item{{}, {}}})

	got, err := f.svc.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "00010-2661A0001-2", got.Items[1].TrackNumber)
}

func TestService_ReadsRunReadOnly(t *testing.T) {
	f := newFixture()
	s := f.create(t, CreateInput{BatchID: &f.forming.ID})
	writes := f.txm.readWrite

	_, err := f.svc.Get(context.Background(), s.ID)
	require.NoError(t, err)
	_, err = f.svc.History(context.Background(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, f.txm.readOnly)
	assert.Equal(t, writes, f.txm.readWrite)
}

func TestService_Preview(t *testing.T) {
	f := newFixture()
	p := f.svc.Preview("", []Item{{
		LengthCm: d("10"), WidthCm: d("50"), HeightCm: d("100"),
		TariffType: TariffPerM3, TariffValue: d("10"),
		InsuranceValue: d("100"), InsurancePercent: d("1"),
	}}, d("2"), nil)

	require.Len(t, p.Items, 1)
	assert.Empty(t, p.Items[0].TrackNumber)
	assertDecimal(t, "0.50", p.Items[0].DeliveryCost)
	assertDecimal(t, "3.50", p.Breakdown.Total)
	assert.Empty(t, f.repo.shipments)
}
