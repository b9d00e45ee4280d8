package repository

import (
	"context"

	"stallsync/internal/dto"
	"stallsync/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.SaleTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SaleTransaction, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.SaleTransaction, error)
	SaveTx(tx *gorm.DB, s *model.SaleTransaction) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.SaleTransaction, int64, error)
	// SumActive totals the filtered set counting only active sales —
	// soft-deleted transactions never contribute to aggregates.
	SumActive(ctx context.Context, filter dto.SaleFilter) (decimal.Decimal, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.SaleTransaction) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SaleTransaction, error) {
	var s model.SaleTransaction
	err := r.db.WithContext(ctx).Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.SaleTransaction, error) {
	var s model.SaleTransaction
	// Locked read: concurrent deletes serialize here, so the second one
	// re-reads the deleted row and fails the terminal-state check.
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) SaveTx(tx *gorm.DB, s *model.SaleTransaction) error {
	return tx.Save(s).Error
}

func applySaleFilter(q *gorm.DB, filter dto.SaleFilter) *gorm.DB {
	if filter.SiteID != "" {
		q = q.Where("site_id = ?", filter.SiteID)
	}
	if filter.StallID != "" {
		q = q.Where("stall_id = ?", filter.StallID)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}
	return q
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.SaleTransaction, int64, error) {
	q := applySaleFilter(r.db.WithContext(ctx).Model(&model.SaleTransaction{}), filter)

	switch filter.Status {
	case "all":
		// no status filter
	case model.SaleStatusDeleted:
		q = q.Where("status = ?", model.SaleStatusDeleted)
	default:
		q = q.Where("status = ?", model.SaleStatusActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var sales []model.SaleTransaction
	err := q.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) SumActive(ctx context.Context, filter dto.SaleFilter) (decimal.Decimal, error) {
	q := applySaleFilter(r.db.WithContext(ctx).Model(&model.SaleTransaction{}), filter).
		Where("status = ?", model.SaleStatusActive)

	var sum decimal.NullDecimal
	err := q.Select("SUM(total_amount)").Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}
