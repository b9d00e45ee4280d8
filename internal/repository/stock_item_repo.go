package repository

import (
	"context"

	"stallsync/internal/dto"
	"stallsync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockItemRepository defines the data access contract for stock records.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
//
// The ...Tx methods run against a caller-supplied transaction; the ForUpdate
// variants take a row lock so concurrent ledger operations on the same record
// serialize inside the store rather than racing on stale reads.
type StockItemRepository interface {
	Create(ctx context.Context, item *model.StockItem) error
	CreateTx(tx *gorm.DB, item *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	// FindStallChildForUpdate locates the stall record at stallID linked to
	// masterID, if one exists.
	FindStallChildForUpdate(tx *gorm.DB, masterID, stallID uuid.UUID) (*model.StockItem, error)
	// FindStallByNameForUpdate locates an unlinked stall record by name, used
	// when transferring items that have no master link.
	FindStallByNameForUpdate(tx *gorm.DB, siteID, stallID uuid.UUID, name string) (*model.StockItem, error)
	List(ctx context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error)
	ListLowStock(ctx context.Context, siteID *uuid.UUID) ([]model.StockItem, error)
	SaveTx(tx *gorm.DB, item *model.StockItem) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockItemRepo struct{ db *gorm.DB }

func NewStockItemRepository(db *gorm.DB) StockItemRepository { return &stockItemRepo{db: db} }

func (r *stockItemRepo) DB() *gorm.DB { return r.db }

func (r *stockItemRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockItemRepo) CreateTx(tx *gorm.DB, item *model.StockItem) error {
	return tx.Create(item).Error
}

func (r *stockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockItemRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockItemRepo) FindStallChildForUpdate(tx *gorm.DB, masterID, stallID uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("original_master_item_id = ? AND stall_id = ?", masterID, stallID).
		First(&item).Error
	return &item, err
}

func (r *stockItemRepo) FindStallByNameForUpdate(tx *gorm.DB, siteID, stallID uuid.UUID, name string) (*model.StockItem, error) {
	var item model.StockItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("site_id = ? AND stall_id = ? AND name = ? AND original_master_item_id IS NULL", siteID, stallID, name).
		First(&item).Error
	return &item, err
}

func (r *stockItemRepo) List(ctx context.Context, filter dto.StockItemFilter) ([]model.StockItem, int64, error) {
	var items []model.StockItem
	var total int64

	q := r.db.WithContext(ctx).Model(&model.StockItem{})

	if filter.SiteID != "" {
		q = q.Where("site_id = ?", filter.SiteID)
	}
	switch filter.Scope {
	case "master":
		q = q.Where("stall_id IS NULL")
	case "stall":
		q = q.Where("stall_id IS NOT NULL")
	}
	if filter.StallID != "" {
		q = q.Where("stall_id = ?", filter.StallID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *stockItemRepo) ListLowStock(ctx context.Context, siteID *uuid.UUID) ([]model.StockItem, error) {
	var items []model.StockItem
	q := r.db.WithContext(ctx).Where("quantity <= low_stock_threshold")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	err := q.Order("quantity ASC").Find(&items).Error
	return items, err
}

func (r *stockItemRepo) SaveTx(tx *gorm.DB, item *model.StockItem) error {
	return tx.Save(item).Error
}

func (r *stockItemRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.StockItem{}, "id = ?", id).Error
}
