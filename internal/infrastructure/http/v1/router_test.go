package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/core/numerator"
	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/http/v1/dto"
	"freightdesk/internal/infrastructure/http/v1/middleware"
	"freightdesk/internal/infrastructure/storage/postgres"
	"freightdesk/pkg/logger"
)

type fixture struct {
	router   *gin.Engine
	invoices *memInvoices
}

func newFixture(t *testing.T, keys middleware.KeyStore) *fixture {
	t.Helper()

	clock := clockz.NewFakeClock()
	batches := newMemCatalog[*batch.Batch]()
	clients := newMemCatalog[*client.Client]()
	shipments := newMemShipments()
	invoices := newMemInvoices()

	shipmentSvc := shipment.NewService(shipment.Deps{
		Repo:      shipments,
		Batches:   batches,
		Clients:   clients,
		Invoices:  invoices,
		Numerator: numerator.NewMemoryGenerator(),
		Clock:     clock,
		Policy:    shipment.DefaultPolicy(),
	})

	cfg := RouterConfig{
		Services: Services{
			Batches:   batch.NewService(batches, nil),
			Clients:   client.NewService(clients, nil),
			Shipments: shipmentSvc,
			Ledger:    ledger.NewService(&memLedger{}, clients, nil, clock),
			Invoices:  invoice.NewService(invoices, shipments, nil, clock),
		},
		DB:      pingFunc(func(context.Context) error { return nil }),
		Logger:  logger.NewNop(),
		Version: "test",
	}
	if keys != nil {
		cfg.Idempotency = keys
	}

	router, err := NewRouter(cfg)
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)
	return &fixture{router: router, invoices: invoices}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderOperatorID, "olena")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) seedCatalogs(t *testing.T) (batchID, clientID string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/catalog/batches", gin.H{"code": "00010", "deliveryType": "AIR"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b := decode[dto.BatchResponse](t, w)

	w = f.do(t, http.MethodPost, "/api/v1/catalog/clients", gin.H{"code": "2661", "name": "Kyiv Import"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[dto.ClientResponse](t, w)

	return b.ID, c.ID
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	h := newHealthRouter(t, errors.New("down"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy: down")
}

func newHealthRouter(t *testing.T, pingErr error) *gin.Engine {
	t.Helper()
	r, err := NewRouter(RouterConfig{
		DB:     pingFunc(func(context.Context) error { return pingErr }),
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)
	return r
}

func TestClientCatalog(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/catalog/clients", gin.H{"code": "2661", "name": "Kyiv Import", "email": "ops@kyiv.example"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.ClientResponse](t, w)
	assert.Equal(t, "2661", created.Code)
	assert.Equal(t, 1, created.Version)

	t.Run("duplicate code", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/catalog/clients", gin.H{"code": "2661", "name": "Other"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperror.CodeDuplicate, decode[dto.ErrorResponse](t, w).Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/catalog/clients", gin.H{"code": "3000", "name": "X", "email": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("code with dash", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/catalog/clients", gin.H{"code": "30-00", "name": "X"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get by code", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/catalog/clients/by-code/2661", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created.ID, decode[dto.ClientResponse](t, w).ID)
	})

	t.Run("bad id", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/catalog/clients/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/catalog/clients/"+created.ID, gin.H{"name": "Kyiv Import LLC", "version": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[dto.ClientResponse](t, w)
		assert.Equal(t, "Kyiv Import LLC", updated.Name)
		assert.Equal(t, "2661", updated.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/catalog/clients/"+created.ID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestBatchCatalog_RejectsUnknownDeliveryType(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/v1/catalog/batches", gin.H{"code": "00011", "deliveryType": "TRUCK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShipmentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	batchID, clientID := f.seedCatalogs(t)

	item := gin.H{"lengthCm": 50, "widthCm": 40, "heightCm": 30, "weightKg": 12, "tariffType": "kg", "tariffValue": 5}

	w := f.do(t, http.MethodPost, "/api/v1/shipments", gin.H{
		"clientId":            clientID,
		"batchId":             batchID,
		"items":               []gin.H{item},
		"receivedAtWarehouse": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sh := decode[dto.ShipmentResponse](t, w)

	assert.Equal(t, "00010-2661A0001", sh.InternalTrack)
	assert.Equal(t, "00010", sh.BatchCode)
	assert.Equal(t, "AIR", sh.DeliveryType)
	assert.Equal(t, string(shipment.StatusReceivedCN), sh.Status)
	assert.Equal(t, "olena", sh.CreatedBy)
	require.Len(t, sh.Items, 1)
	assert.Equal(t, "00010-2661A0001-1", sh.Items[0].TrackNumber)
	require.NotNil(t, sh.TotalCost)
	assert.True(t, decimal.NewFromInt(60).Equal(*sh.TotalCost), sh.TotalCost.String())

	t.Run("stale version", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/shipments/"+sh.ID, gin.H{"version": 99, "items": []gin.H{item}})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, apperror.CodeConcurrentModification, decode[dto.ErrorResponse](t, w).Code)
	})

	t.Run("status change", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/shipments/"+sh.ID, gin.H{
			"version": 1,
			"batchId": batchID,
			"items":   []gin.H{item},
			"status":  "IN_TRANSIT",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		upd := decode[dto.ShipmentResponse](t, w)
		assert.Equal(t, "IN_TRANSIT", upd.Status)
		assert.Equal(t, 2, upd.Version)
		assert.Equal(t, sh.InternalTrack, upd.InternalTrack)

		w = f.do(t, http.MethodGet, "/api/v1/shipments/"+sh.ID+"/history", nil)
		require.Equal(t, http.StatusOK, w.Code)
		hist := decode[struct {
			Items []dto.HistoryEntryResponse `json:"items"`
		}](t, w)
		require.Len(t, hist.Items, 2)
		assert.Equal(t, "IN_TRANSIT", hist.Items[0].Status)
		assert.Equal(t, "RECEIVED_CN", hist.Items[1].Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/shipments/"+sh.ID, gin.H{"status": "LOST"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list by client", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/shipments?clientId="+clientID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decode[dto.ListResponse](t, w).TotalCount)
	})

	var first dto.InvoiceResponse
	t.Run("invoice with derived number", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"shipmentId": sh.ID, "amount": "60"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		first = decode[dto.InvoiceResponse](t, w)
		assert.Equal(t, "INV-2661A0001", first.Number)
		assert.Equal(t, "UNPAID", first.Status)
	})

	t.Run("duplicate warning", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"shipmentId": sh.ID, "amount": "10"})
		require.Equal(t, http.StatusConflict, w.Code)
		warn := decode[dto.DuplicateWarningResponse](t, w)
		assert.Equal(t, apperror.CodeDuplicateWarned, warn.Code)
		require.Len(t, warn.Existing, 1)
		assert.Equal(t, first.ID, warn.Existing[0].ID)

		w = f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"shipmentId": sh.ID, "amount": "10", "confirmDuplicate": true})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("delete unlinks invoices", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/shipments/"+sh.ID, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, "/api/v1/invoices/"+first.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[dto.InvoiceResponse](t, w).ShipmentID)

		w = f.do(t, http.MethodGet, "/api/v1/shipments/"+sh.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShipmentCreate_UnknownClient(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/v1/shipments", gin.H{"clientId": "0190b4c1-7d3e-7000-8000-000000000001"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDerivePreview(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/shipments/derive", gin.H{
		"track":       "00010-2661A0001",
		"packingCost": "10",
		"items": []gin.H{
			{"lengthCm": 50, "widthCm": 40, "heightCm": 30, "weightKg": 12, "tariffType": "kg", "tariffValue": 5},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[dto.DeriveResponse](t, w)

	require.Len(t, p.Items, 1)
	assert.Equal(t, "00010-2661A0001-1", p.Items[0].TrackNumber)
	require.NotNil(t, p.Items[0].VolumeM3)
	assert.True(t, decimal.RequireFromString("0.06").Equal(*p.Items[0].VolumeM3))
	require.NotNil(t, p.Breakdown.Total)
	assert.True(t, decimal.NewFromInt(70).Equal(*p.Breakdown.Total), p.Breakdown.Total.String())
}

func TestDerivePreview_NonNumericInputClearsDerivedFields(t *testing.T) {
	f := newFixture(t, nil)

	for _, length := range []any{"abc", ""} {
		w := f.do(t, http.MethodPost, "/api/v1/shipments/derive", gin.H{
			"track": "00010-2661A0001",
			"items": []gin.H{
				{"lengthCm": length, "widthCm": 40, "heightCm": 30, "weightKg": "24", "tariffType": "kg", "tariffValue": 10},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p := decode[dto.DeriveResponse](t, w)

		require.Len(t, p.Items, 1)
		it := p.Items[0]
		assert.Nil(t, it.LengthCm, "length %q", length)
		assert.Nil(t, it.VolumeM3)
		assert.Nil(t, it.Density)
		require.NotNil(t, it.DeliveryCost)
		assert.True(t, decimal.NewFromInt(240).Equal(*it.DeliveryCost), it.DeliveryCost.String())
	}

	t.Run("per m3 tariff without volume", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/shipments/derive", gin.H{
			"items":       []gin.H{{"lengthCm": "x", "widthCm": 40, "heightCm": 30, "tariffType": "m3", "tariffValue": "n/a"}},
			"packingCost": "ten",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p := decode[dto.DeriveResponse](t, w)
		assert.Nil(t, p.Items[0].DeliveryCost)
		assert.Nil(t, p.Items[0].TariffValue)
		assert.Nil(t, p.Breakdown.Total)
	})
}

func TestShipmentCreate_NonNumericItemInput(t *testing.T) {
	f := newFixture(t, nil)
	batchID, clientID := f.seedCatalogs(t)

	w := f.do(t, http.MethodPost, "/api/v1/shipments", gin.H{
		"clientId": clientID,
		"batchId":  batchID,
		"items": []gin.H{
			{"lengthCm": "x", "widthCm": 40, "heightCm": 30, "weightKg": 24, "tariffType": "kg", "tariffValue": "10"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sh := decode[dto.ShipmentResponse](t, w)

	require.Len(t, sh.Items, 1)
	assert.Nil(t, sh.Items[0].VolumeM3)
	assert.Nil(t, sh.Items[0].Density)
	require.NotNil(t, sh.TotalCost)
	assert.True(t, decimal.NewFromInt(240).Equal(*sh.TotalCost), sh.TotalCost.String())
}

func TestLedger(t *testing.T) {
	f := newFixture(t, nil)
	_, clientID := f.seedCatalogs(t)
	path := "/api/v1/clients/" + clientID

	w := f.do(t, http.MethodPost, path+"/transactions", gin.H{"type": "income", "amount": "100", "description": "prepayment"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, path+"/transactions", gin.H{"type": "expense", "amount": "30.5"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, path+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bal := decode[dto.BalanceResponse](t, w)
	assert.True(t, decimal.RequireFromString("69.5").Equal(bal.Balance), bal.Balance.String())
	assert.Equal(t, 2, bal.Count)

	w = f.do(t, http.MethodGet, path+"/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[dto.StatementResponse](t, w)
	require.Len(t, st.Entries, 2)
	for _, e := range st.Entries {
		assert.NotNil(t, e.RunningBalance)
	}

	t.Run("bad type", func(t *testing.T) {
		w := f.do(t, http.MethodPost, path+"/transactions", gin.H{"type": "refund", "amount": "1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		w := f.do(t, http.MethodPost, path+"/transactions", gin.H{"type": "income", "amount": "0"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown client", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/clients/0190b4c1-7d3e-7000-8000-000000000001/balance", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInvoice_Validation(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"invoiceNumber": "INV-1", "amount": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"amount": "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"invoiceNumber": "INV-1", "amount": "5", "dueDate": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/invoices", gin.H{"invoiceNumber": "INV-1", "amount": "5", "dueDate": "2024-04-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := decode[dto.InvoiceResponse](t, w)

	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/status", gin.H{"status": "PAID"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", decode[dto.InvoiceResponse](t, w).Status)

	w = f.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/regenerate-number", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

type recordingKeys struct {
	completed map[string]int
}

func (r *recordingKeys) AcquireKey(context.Context, string, string, string, string) (*postgres.IdempotencyReplay, error) {
	return nil, nil
}

func (r *recordingKeys) CompleteKey(_ context.Context, key string, statusCode int, _ string, _ any) error {
	r.completed[key] = statusCode
	return nil
}

func (r *recordingKeys) FailKey(context.Context, string, int, string, any) error { return nil }

func TestIdempotentCreateStoresResponse(t *testing.T) {
	keys := &recordingKeys{completed: map[string]int{}}
	f := newFixture(t, keys)

	w := f.do(t, http.MethodPost, "/api/v1/catalog/batches", gin.H{"code": "00020", "deliveryType": "SEA"},
		middleware.HeaderIdempotencyKey, "batch-00020")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusCreated, keys.completed["batch-00020"])
}
