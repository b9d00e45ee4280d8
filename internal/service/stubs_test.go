package service

import (
	"context"
	"strings"

	"stallsync/internal/dto"
	"stallsync/internal/model"
	"stallsync/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory StockItemRepository stub ───────────────────────────────────────
// Find methods hand out copies; only SaveTx/CreateTx persist, mirroring the
// read-mutate-save cycle the services run against the real store.

type stubStockItemRepo struct {
	items map[uuid.UUID]*model.StockItem
}

func newStubStockItemRepo() *stubStockItemRepo {
	return &stubStockItemRepo{items: make(map[uuid.UUID]*model.StockItem)}
}

func (r *stubStockItemRepo) get(id uuid.UUID) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *stubStockItemRepo) put(item *model.StockItem) {
	cp := *item
	r.items[item.ID] = &cp
}

func (r *stubStockItemRepo) Create(_ context.Context, item *model.StockItem) error {
	return r.CreateTx(nil, item)
}

func (r *stubStockItemRepo) CreateTx(_ *gorm.DB, item *model.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.put(item)
	return nil
}

func (r *stubStockItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	return r.get(id)
}

func (r *stubStockItemRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	return r.get(id)
}

func (r *stubStockItemRepo) FindStallChildForUpdate(_ *gorm.DB, masterID, stallID uuid.UUID) (*model.StockItem, error) {
	for _, item := range r.items {
		if item.OriginalMasterItemID != nil && *item.OriginalMasterItemID == masterID &&
			item.StallID != nil && *item.StallID == stallID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockItemRepo) FindStallByNameForUpdate(_ *gorm.DB, siteID, stallID uuid.UUID, name string) (*model.StockItem, error) {
	for _, item := range r.items {
		if item.SiteID == siteID && item.StallID != nil && *item.StallID == stallID &&
			item.Name == name && item.OriginalMasterItemID == nil {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStockItemRepo) List(_ context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error) {
	var result []model.StockItem
	for _, item := range r.items {
		switch filter.Scope {
		case "master":
			if item.StallID != nil {
				continue
			}
		case "stall":
			if item.StallID == nil {
				continue
			}
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Name)) {
			continue
		}
		result = append(result, *item)
	}
	return result, int64(len(result)), nil
}

func (r *stubStockItemRepo) ListLowStock(_ context.Context, siteID *uuid.UUID) ([]model.StockItem, error) {
	var result []model.StockItem
	for _, item := range r.items {
		if siteID != nil && item.SiteID != *siteID {
			continue
		}
		if item.Quantity <= item.LowStockThreshold {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (r *stubStockItemRepo) SaveTx(_ *gorm.DB, item *model.StockItem) error {
	r.put(item)
	return nil
}

func (r *stubStockItemRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

// nil DB puts runTx in direct-call mode
func (r *stubStockItemRepo) DB() *gorm.DB { return nil }

var _ repository.StockItemRepository = (*stubStockItemRepo)(nil)

// ── In-memory StockMovementRepository stub ───────────────────────────────────

type stubMovementRepo struct {
	entries []model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.entries = append(r.entries, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	var result []model.StockMovement
	for _, m := range r.entries {
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.ItemID != "" && m.StockItemID.String() != filter.ItemID {
			continue
		}
		result = append(result, m)
	}
	return result, int64(len(result)), nil
}

// ofType filters the recorded trail for assertions.
func (r *stubMovementRepo) ofType(movType string) []model.StockMovement {
	var result []model.StockMovement
	for _, m := range r.entries {
		if m.Type == movType {
			result = append(result, m)
		}
	}
	return result
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── In-memory SiteRepository stub ────────────────────────────────────────────

type stubSiteRepo struct {
	sites  map[uuid.UUID]*model.Site
	stalls map[uuid.UUID]*model.Stall
}

func newStubSiteRepo() *stubSiteRepo {
	return &stubSiteRepo{
		sites:  make(map[uuid.UUID]*model.Site),
		stalls: make(map[uuid.UUID]*model.Stall),
	}
}

func (r *stubSiteRepo) FindSiteByID(_ context.Context, id uuid.UUID) (*model.Site, error) {
	s, ok := r.sites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSiteRepo) FindStallByID(_ context.Context, id uuid.UUID) (*model.Stall, error) {
	return r.FindStallByIDTx(nil, id)
}

func (r *stubSiteRepo) FindStallByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Stall, error) {
	s, ok := r.stalls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSiteRepo) CreateSite(_ context.Context, s *model.Site) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sites[s.ID] = s
	return nil
}

func (r *stubSiteRepo) CreateStall(_ context.Context, s *model.Stall) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.stalls[s.ID] = s
	return nil
}

func (r *stubSiteRepo) ListSites(_ context.Context) ([]model.Site, error) {
	result := make([]model.Site, 0, len(r.sites))
	for _, s := range r.sites {
		result = append(result, *s)
	}
	return result, nil
}

func (r *stubSiteRepo) ListStalls(_ context.Context, siteID uuid.UUID) ([]model.Stall, error) {
	var result []model.Stall
	for _, s := range r.stalls {
		if s.SiteID == siteID {
			result = append(result, *s)
		}
	}
	return result, nil
}

var _ repository.SiteRepository = (*stubSiteRepo)(nil)

// ── In-memory SaleRepository stub ────────────────────────────────────────────

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.SaleTransaction
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.SaleTransaction)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.SaleTransaction) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].TransactionID = s.ID
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SaleTransaction, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.SaleTransaction, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) SaveTx(_ *gorm.DB, s *model.SaleTransaction) error {
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.SaleTransaction, int64, error) {
	var result []model.SaleTransaction
	for _, s := range r.sales {
		switch filter.Status {
		case "all":
		case model.SaleStatusDeleted:
			if s.Status != model.SaleStatusDeleted {
				continue
			}
		default:
			if s.Status != model.SaleStatusActive {
				continue
			}
		}
		if filter.StallID != "" && s.StallID.String() != filter.StallID {
			continue
		}
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (r *stubSaleRepo) SumActive(_ context.Context, filter dto.SaleFilter) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, s := range r.sales {
		if s.Status != model.SaleStatusActive {
			continue
		}
		if filter.StallID != "" && s.StallID.String() != filter.StallID {
			continue
		}
		sum = sum.Add(s.TotalAmount)
	}
	return sum, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

var testActor = Actor{ID: uuid.New(), Name: "Test Manager"}

func seedSite(sites *stubSiteRepo, name string) *model.Site {
	s := &model.Site{ID: uuid.New(), Name: name, Active: true}
	sites.sites[s.ID] = s
	return s
}

func seedStall(sites *stubSiteRepo, siteID uuid.UUID, name string) *model.Stall {
	s := &model.Stall{ID: uuid.New(), SiteID: siteID, Name: name, StallType: "retail", Active: true}
	sites.stalls[s.ID] = s
	return s
}

func seedMaster(items *stubStockItemRepo, siteID uuid.UUID, name string, qty int) *model.StockItem {
	item := &model.StockItem{
		ID:                uuid.New(),
		Name:              name,
		Category:          "TEST",
		Quantity:          qty,
		Unit:              "pcs",
		Price:             decimal.NewFromFloat(12.50),
		LowStockThreshold: 5,
		SiteID:            siteID,
	}
	items.put(item)
	return item
}

func seedLinkedStallItem(items *stubStockItemRepo, master *model.StockItem, stallID uuid.UUID, qty int) *model.StockItem {
	link := master.ID
	item := &model.StockItem{
		ID:                   uuid.New(),
		Name:                 master.Name,
		Category:             master.Category,
		Quantity:             qty,
		Unit:                 master.Unit,
		Price:                master.Price,
		LowStockThreshold:    master.LowStockThreshold,
		SiteID:               master.SiteID,
		StallID:              &stallID,
		OriginalMasterItemID: &link,
	}
	items.put(item)
	return item
}

func seedUnlinkedStallItem(items *stubStockItemRepo, siteID, stallID uuid.UUID, name string, qty int) *model.StockItem {
	item := &model.StockItem{
		ID:                uuid.New(),
		Name:              name,
		Category:          "TEST",
		Quantity:          qty,
		Unit:              "pcs",
		Price:             decimal.NewFromFloat(8.00),
		LowStockThreshold: 3,
		SiteID:            siteID,
		StallID:           &stallID,
	}
	items.put(item)
	return item
}
