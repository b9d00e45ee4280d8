package worker

import (
	"context"
	"encoding/json"
	"testing"

	"stallsync/internal/dto"
	"stallsync/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Service stubs ────────────────────────────────────────────────────────────

type stubStockSvc struct {
	service.StockService
	created []dto.CreateStockItemRequest
	failOn  string // item name that should error
}

func (s *stubStockSvc) Create(_ context.Context, _ service.Actor, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	if req.Name == s.failOn {
		return nil, assert.AnError
	}
	s.created = append(s.created, req)
	return &dto.StockItemResponse{ID: uuid.New().String(), Name: req.Name, Quantity: req.Quantity}, nil
}

type stubLedgerSvc struct {
	service.LedgerService
	corrections map[uuid.UUID]int
}

func (s *stubLedgerSvc) SetQuantity(_ context.Context, _ service.Actor, itemID uuid.UUID, req dto.SetQuantityRequest) (*dto.StockItemResponse, error) {
	if s.corrections == nil {
		s.corrections = make(map[uuid.UUID]int)
	}
	s.corrections[itemID] = req.Quantity
	return &dto.StockItemResponse{ID: itemID.String(), Quantity: req.Quantity}, nil
}

func newTestWorker() (*ImportWorker, *stubStockSvc, *stubLedgerSvc) {
	stock := &stubStockSvc{}
	ledgerSvc := &stubLedgerSvc{}
	// Nothing listening on :1 — result storage fails softly, which is fine here.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewImportWorker(stock, ledgerSvc, rdb), stock, ledgerSvc
}

func payloadFor(csv, stallID string) ImportJobPayload {
	return ImportJobPayload{
		JobID:     uuid.New().String(),
		SiteID:    uuid.New().String(),
		StallID:   stallID,
		ActorID:   uuid.New().String(),
		ActorName: "Importer",
		CSV:       csv,
	}
}

// ── processRow ───────────────────────────────────────────────────────────────

func TestProcessRowCreatesItem(t *testing.T) {
	w, stock, _ := newTestWorker()
	payload := payloadFor("", "")
	actor := service.Actor{ID: uuid.New(), Name: "Importer"}

	res := w.processRow(context.Background(), actor, payload, 2,
		[]string{"Coffee Beans 1kg", "Beverages", "40", "pcs", "12.50"})

	assert.Empty(t, res.Error)
	assert.NotEmpty(t, res.ItemID)
	require.Len(t, stock.created, 1)
	assert.Equal(t, "Coffee Beans 1kg", stock.created[0].Name)
	assert.Equal(t, 40, stock.created[0].Quantity)
	assert.Nil(t, stock.created[0].StallID)
}

func TestProcessRowOptionalColumns(t *testing.T) {
	w, stock, _ := newTestWorker()
	stallID := uuid.New().String()
	payload := payloadFor("", stallID)
	actor := service.Actor{ID: uuid.New(), Name: "Importer"}

	res := w.processRow(context.Background(), actor, payload, 2,
		[]string{"Homemade Jam", "Preserves", "12", "jar", "8.00", "4.50", "3"})

	assert.Empty(t, res.Error)
	require.Len(t, stock.created, 1)
	require.NotNil(t, stock.created[0].CostPrice)
	assert.Equal(t, "4.5", stock.created[0].CostPrice.String())
	assert.Equal(t, 3, stock.created[0].LowStockThreshold)
	require.NotNil(t, stock.created[0].StallID)
	assert.Equal(t, stallID, *stock.created[0].StallID)
}

func TestProcessRowUUIDIsQuantityCorrection(t *testing.T) {
	w, stock, ledgerSvc := newTestWorker()
	payload := payloadFor("", "")
	actor := service.Actor{ID: uuid.New(), Name: "Importer"}
	itemID := uuid.New()

	res := w.processRow(context.Background(), actor, payload, 2,
		[]string{itemID.String(), "17"})

	assert.Empty(t, res.Error)
	assert.Equal(t, itemID.String(), res.ItemID)
	assert.Equal(t, 17, ledgerSvc.corrections[itemID])
	assert.Empty(t, stock.created)
}

func TestProcessRowBadQuantity(t *testing.T) {
	w, stock, _ := newTestWorker()
	payload := payloadFor("", "")
	actor := service.Actor{ID: uuid.New(), Name: "Importer"}

	res := w.processRow(context.Background(), actor, payload, 3,
		[]string{"Coffee Beans 1kg", "Beverages", "lots", "pcs", "12.50"})

	assert.Contains(t, res.Error, "invalid quantity")
	assert.Empty(t, stock.created)
}

func TestProcessRowTooFewColumns(t *testing.T) {
	w, stock, _ := newTestWorker()
	payload := payloadFor("", "")
	actor := service.Actor{ID: uuid.New(), Name: "Importer"}

	res := w.processRow(context.Background(), actor, payload, 2, []string{"Coffee Beans 1kg", "Beverages"})

	assert.Contains(t, res.Error, "at least 5 columns")
	assert.Empty(t, stock.created)
}

// ── Process ──────────────────────────────────────────────────────────────────

func TestProcessRowsAreIndependent(t *testing.T) {
	w, stock, _ := newTestWorker()
	stock.failOn = "Broken Row"

	csv := "name,category,quantity,unit,price\n" +
		"Coffee Beans 1kg,Beverages,40,pcs,12.50\n" +
		"Broken Row,Misc,1,pcs,1.00\n" +
		"Tea Leaves 500g,Beverages,15,box,6.75\n"

	raw, err := json.Marshal(payloadFor(csv, ""))
	require.NoError(t, err)
	w.Process(context.Background(), raw)

	// The failing middle row did not stop the rows around it.
	require.Len(t, stock.created, 2)
	assert.Equal(t, "Coffee Beans 1kg", stock.created[0].Name)
	assert.Equal(t, "Tea Leaves 500g", stock.created[1].Name)
}

func TestHeaderRowDetection(t *testing.T) {
	assert.True(t, isHeaderRow([]string{"name", "category", "quantity"}))
	assert.True(t, isHeaderRow([]string{" Name ", "Category"}))
	assert.False(t, isHeaderRow([]string{"Coffee Beans 1kg", "Beverages"}))
	assert.False(t, isHeaderRow(nil))
}

func TestUUIDColumnDetection(t *testing.T) {
	assert.True(t, looksLikeUUID(uuid.New().String()))
	assert.False(t, looksLikeUUID("Coffee Beans 1kg"))
}
