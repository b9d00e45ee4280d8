package service

import (
	"context"
	"testing"

	"stallsync/internal/dto"
	"stallsync/internal/ledger"
	"stallsync/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	items     *stubStockItemRepo
	movements *stubMovementRepo
	sites     *stubSiteRepo
	svc       LedgerService
}

func newLedgerFixture() *ledgerFixture {
	items := newStubStockItemRepo()
	movements := newStubMovementRepo()
	sites := newStubSiteRepo()
	return &ledgerFixture{
		items:     items,
		movements: movements,
		sites:     sites,
		svc:       NewLedgerService(items, movements, sites),
	}
}

// totalFor sums the master's quantity plus all its linked children: the
// quantity moved by allocation and return, never created or destroyed.
func (f *ledgerFixture) totalFor(masterID uuid.UUID) int {
	total := 0
	for _, item := range f.items.items {
		if item.ID == masterID {
			total += item.Quantity
		}
		if item.OriginalMasterItemID != nil && *item.OriginalMasterItemID == masterID {
			total += item.Quantity
		}
	}
	return total
}

// ── Allocate ─────────────────────────────────────────────────────────────────

func TestAllocateCreatesLinkedStallRecord(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 100)

	resp, err := f.svc.Allocate(context.Background(), testActor, master.ID, dto.AllocateRequest{
		StallID:  stall.ID.String(),
		Quantity: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.Quantity)
	require.NotNil(t, resp.StallID)
	assert.Equal(t, stall.ID.String(), *resp.StallID)
	require.NotNil(t, resp.OriginalMasterItemID)
	assert.Equal(t, master.ID.String(), *resp.OriginalMasterItemID)

	assert.Equal(t, 70, f.items.items[master.ID].Quantity)
	assert.Equal(t, 100, f.totalFor(master.ID))

	out := f.movements.ofType(model.MovementAllocateOut)
	in := f.movements.ofType(model.MovementReceiveAllocation)
	require.Len(t, out, 1)
	require.Len(t, in, 1)
	assert.Equal(t, out[0].CorrelationID, in[0].CorrelationID)
	assert.Equal(t, -30, out[0].QuantityChange)
	assert.Equal(t, 100, out[0].QuantityBefore)
	assert.Equal(t, 70, out[0].QuantityAfter)
	assert.Equal(t, 30, in[0].QuantityChange)
	assert.Equal(t, 0, in[0].QuantityBefore)
	assert.Equal(t, 30, in[0].QuantityAfter)
	assert.Equal(t, testActor.Name, out[0].UserName)
}

func TestAllocateGrowsExistingChild(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 100)
	child := seedLinkedStallItem(f.items, master, stall.ID, 10)

	resp, err := f.svc.Allocate(context.Background(), testActor, master.ID, dto.AllocateRequest{
		StallID:  stall.ID.String(),
		Quantity: 25,
	})
	require.NoError(t, err)

	// Same record grew; no second child appeared.
	assert.Equal(t, child.ID.String(), resp.ID)
	assert.Equal(t, 35, resp.Quantity)
	assert.Equal(t, 75, f.items.items[master.ID].Quantity)
	assert.Len(t, f.items.items, 2)
}

func TestAllocateInsufficientStock(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 10)

	_, err := f.svc.Allocate(context.Background(), testActor, master.ID, dto.AllocateRequest{
		StallID:  stall.ID.String(),
		Quantity: 11,
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
	assert.Equal(t, 10, f.items.items[master.ID].Quantity)
	// Rejected operation leaves no trail.
	assert.Empty(t, f.movements.entries)
}

func TestAllocateToStallInDifferentSite(t *testing.T) {
	f := newLedgerFixture()
	siteA := seedSite(f.sites, "Market A")
	siteB := seedSite(f.sites, "Market B")
	foreignStall := seedStall(f.sites, siteB.ID, "Stall B1")
	master := seedMaster(f.items, siteA.ID, "Coffee Beans 1kg", 100)

	_, err := f.svc.Allocate(context.Background(), testActor, master.ID, dto.AllocateRequest{
		StallID:  foreignStall.ID.String(),
		Quantity: 10,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidScope)
	assert.Empty(t, f.movements.entries)
}

func TestAllocateFromStallRecordRejected(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	item := seedUnlinkedStallItem(f.items, site.ID, stall.ID, "Homemade Jam", 10)

	_, err := f.svc.Allocate(context.Background(), testActor, item.ID, dto.AllocateRequest{
		StallID:  stall.ID.String(),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestAllocateUnknownMaster(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")

	_, err := f.svc.Allocate(context.Background(), testActor, uuid.New(), dto.AllocateRequest{
		StallID:  stall.ID.String(),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// ── Return ───────────────────────────────────────────────────────────────────

func TestReturnMovesQuantityBackToMaster(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 70)
	child := seedLinkedStallItem(f.items, master, stall.ID, 30)

	resp, err := f.svc.Return(context.Background(), testActor, child.ID, dto.ReturnRequest{Quantity: 12})
	require.NoError(t, err)

	assert.Equal(t, 18, resp.Quantity)
	assert.Equal(t, 82, f.items.items[master.ID].Quantity)
	assert.Equal(t, 100, f.totalFor(master.ID))

	out := f.movements.ofType(model.MovementReturnOut)
	in := f.movements.ofType(model.MovementReceiveReturn)
	require.Len(t, out, 1)
	require.Len(t, in, 1)
	assert.Equal(t, out[0].CorrelationID, in[0].CorrelationID)
}

func TestReturnUnlinkedItemRejected(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	item := seedUnlinkedStallItem(f.items, site.ID, stall.ID, "Homemade Jam", 10)

	_, err := f.svc.Return(context.Background(), testActor, item.ID, dto.ReturnRequest{Quantity: 5})
	assert.ErrorIs(t, err, ledger.ErrUnlinkedItem)
}

func TestReturnMoreThanStallHolds(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 70)
	child := seedLinkedStallItem(f.items, master, stall.ID, 30)

	_, err := f.svc.Return(context.Background(), testActor, child.ID, dto.ReturnRequest{Quantity: 31})
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
}

func TestReturnWithStaleMasterLink(t *testing.T) {
	f := newLedgerFixture()
	siteA := seedSite(f.sites, "Market A")
	siteB := seedSite(f.sites, "Market B")
	stall := seedStall(f.sites, siteA.ID, "Stall A")
	// Link points at a record that is no longer a valid master for this site.
	foreignMaster := seedMaster(f.items, siteB.ID, "Coffee Beans 1kg", 50)
	child := seedLinkedStallItem(f.items, foreignMaster, stall.ID, 30)
	child.SiteID = siteA.ID
	f.items.put(child)

	_, err := f.svc.Return(context.Background(), testActor, child.ID, dto.ReturnRequest{Quantity: 5})
	assert.ErrorIs(t, err, ledger.ErrInvalidScope)
}

// ── Transfer ─────────────────────────────────────────────────────────────────

func TestTransferPreservesMasterLink(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stallA := seedStall(f.sites, site.ID, "Stall A")
	stallB := seedStall(f.sites, site.ID, "Stall B")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 50)
	source := seedLinkedStallItem(f.items, master, stallA.ID, 30)

	resp, err := f.svc.Transfer(context.Background(), testActor, source.ID, dto.TransferRequest{
		DestStallID: stallB.ID.String(),
		Quantity:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Quantity)
	require.NotNil(t, resp.OriginalMasterItemID)
	assert.Equal(t, master.ID.String(), *resp.OriginalMasterItemID)

	// Master untouched: stall-to-stall moves never change site stock.
	assert.Equal(t, 50, f.items.items[master.ID].Quantity)
	assert.Equal(t, 20, f.items.items[source.ID].Quantity)

	out := f.movements.ofType(model.MovementTransferOut)
	in := f.movements.ofType(model.MovementTransferIn)
	require.Len(t, out, 1)
	require.Len(t, in, 1)
	assert.Equal(t, out[0].CorrelationID, in[0].CorrelationID)
}

func TestTransferUnlinkedMatchesByName(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stallA := seedStall(f.sites, site.ID, "Stall A")
	stallB := seedStall(f.sites, site.ID, "Stall B")
	source := seedUnlinkedStallItem(f.items, site.ID, stallA.ID, "Homemade Jam", 20)
	dest := seedUnlinkedStallItem(f.items, site.ID, stallB.ID, "Homemade Jam", 5)

	resp, err := f.svc.Transfer(context.Background(), testActor, source.ID, dto.TransferRequest{
		DestStallID: stallB.ID.String(),
		Quantity:    8,
	})
	require.NoError(t, err)

	assert.Equal(t, dest.ID.String(), resp.ID)
	assert.Equal(t, 13, resp.Quantity)
	assert.Equal(t, 12, f.items.items[source.ID].Quantity)
	assert.Len(t, f.items.items, 2)
}

func TestTransferAcrossSitesRejected(t *testing.T) {
	f := newLedgerFixture()
	siteA := seedSite(f.sites, "Market A")
	siteB := seedSite(f.sites, "Market B")
	stallA := seedStall(f.sites, siteA.ID, "Stall A")
	foreignStall := seedStall(f.sites, siteB.ID, "Stall B1")
	source := seedUnlinkedStallItem(f.items, siteA.ID, stallA.ID, "Homemade Jam", 20)

	_, err := f.svc.Transfer(context.Background(), testActor, source.ID, dto.TransferRequest{
		DestStallID: foreignStall.ID.String(),
		Quantity:    5,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidScope)
}

func TestTransferToSameStallRejected(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	source := seedUnlinkedStallItem(f.items, site.ID, stall.ID, "Homemade Jam", 20)

	_, err := f.svc.Transfer(context.Background(), testActor, source.ID, dto.TransferRequest{
		DestStallID: stall.ID.String(),
		Quantity:    5,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── SetQuantity ──────────────────────────────────────────────────────────────

func TestSetQuantityPropagatesDeltaToMaster(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)
	child := seedLinkedStallItem(f.items, master, stall.ID, 10)

	// Miscount correction: 10 → 4, delta -6 hits the master too.
	resp, err := f.svc.SetQuantity(context.Background(), testActor, child.ID, dto.SetQuantityRequest{
		Quantity: 4,
		Notes:    "stocktake",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Quantity)
	assert.Equal(t, 34, f.items.items[master.ID].Quantity)

	direct := f.movements.ofType(model.MovementDirectUpdate)
	propagated := f.movements.ofType(model.MovementDirectMasterUpd)
	require.Len(t, direct, 1)
	require.Len(t, propagated, 1)
	assert.Equal(t, direct[0].CorrelationID, propagated[0].CorrelationID)
	assert.Equal(t, -6, direct[0].QuantityChange)
	assert.Equal(t, -6, propagated[0].QuantityChange)
	assert.Equal(t, "stocktake", direct[0].Notes)
}

func TestSetQuantityMasterCannotAbsorbDelta(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	stall := seedStall(f.sites, site.ID, "Stall A")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 20)
	child := seedLinkedStallItem(f.items, master, stall.ID, 50)

	// delta -40 would push the master to -20
	_, err := f.svc.SetQuantity(context.Background(), testActor, child.ID, dto.SetQuantityRequest{Quantity: 10})
	assert.ErrorIs(t, err, ledger.ErrInconsistentPropagation)
}

func TestSetQuantityOnMasterIsLocal(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)

	resp, err := f.svc.SetQuantity(context.Background(), testActor, master.ID, dto.SetQuantityRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Quantity)
	assert.Empty(t, f.movements.ofType(model.MovementDirectMasterUpd))
}

func TestSetQuantityNegativeRejected(t *testing.T) {
	f := newLedgerFixture()
	_, err := f.svc.SetQuantity(context.Background(), testActor, uuid.New(), dto.SetQuantityRequest{Quantity: -1})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── DeleteItem ───────────────────────────────────────────────────────────────

func TestDeleteItemWritesTrailBeforeRemoving(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	master := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)

	err := f.svc.DeleteItem(context.Background(), testActor, master.ID, "discontinued")
	require.NoError(t, err)

	_, ok := f.items.items[master.ID]
	assert.False(t, ok)

	trail := f.movements.ofType(model.MovementDelete)
	require.Len(t, trail, 1)
	assert.Equal(t, "Coffee Beans 1kg", trail[0].ItemName)
	assert.Equal(t, 40, trail[0].QuantityBefore)
	assert.Equal(t, 0, trail[0].QuantityAfter)
	assert.Equal(t, "discontinued", trail[0].Notes)
}

// ── Batch operations ─────────────────────────────────────────────────────────

func TestBatchSetQuantitySharesOneCorrelationID(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	a := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)
	b := seedMaster(f.items, site.ID, "Tea Leaves 500g", 15)

	results, err := f.svc.BatchSetQuantity(context.Background(), testActor, dto.BatchSetQuantityRequest{
		Items: []dto.BatchSetQuantityItem{
			{ItemID: a.ID.String(), Quantity: 33},
			{ItemID: b.ID.String(), Quantity: 0},
		},
		Notes: "stocktake",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	rows := f.movements.ofType(model.MovementBatchSet)
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].CorrelationID, rows[1].CorrelationID)
	assert.Equal(t, 33, f.items.items[a.ID].Quantity)
	assert.Equal(t, 0, f.items.items[b.ID].Quantity)
}

func TestBatchSetQuantityInvalidIDFailsWhole(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	a := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)

	results, err := f.svc.BatchSetQuantity(context.Background(), testActor, dto.BatchSetQuantityRequest{
		Items: []dto.BatchSetQuantityItem{
			{ItemID: a.ID.String(), Quantity: 33},
			{ItemID: "not-a-uuid", Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Nil(t, results)
}

func TestBatchDeleteRemovesAll(t *testing.T) {
	f := newLedgerFixture()
	site := seedSite(f.sites, "Main Market")
	a := seedMaster(f.items, site.ID, "Coffee Beans 1kg", 40)
	b := seedMaster(f.items, site.ID, "Tea Leaves 500g", 15)

	err := f.svc.BatchDelete(context.Background(), testActor, dto.BatchDeleteRequest{
		ItemIDs: []string{a.ID.String(), b.ID.String()},
		Notes:   "season end",
	})
	require.NoError(t, err)
	assert.Empty(t, f.items.items)

	rows := f.movements.ofType(model.MovementBatchDelete)
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].CorrelationID, rows[1].CorrelationID)
}

func TestBatchDeleteEmptyRejected(t *testing.T) {
	f := newLedgerFixture()
	err := f.svc.BatchDelete(context.Background(), testActor, dto.BatchDeleteRequest{})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
