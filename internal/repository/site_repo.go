package repository

import (
	"context"

	"stallsync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SiteRepository resolves scope entities. The ledger engine validates every
// stall reference against its site before moving stock, so stall lookups are
// also available inside transactions.
type SiteRepository interface {
	FindSiteByID(ctx context.Context, id uuid.UUID) (*model.Site, error)
	FindStallByID(ctx context.Context, id uuid.UUID) (*model.Stall, error)
	FindStallByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Stall, error)
	CreateSite(ctx context.Context, s *model.Site) error
	CreateStall(ctx context.Context, s *model.Stall) error
	ListSites(ctx context.Context) ([]model.Site, error)
	ListStalls(ctx context.Context, siteID uuid.UUID) ([]model.Stall, error)
}

type siteRepo struct{ db *gorm.DB }

func NewSiteRepository(db *gorm.DB) SiteRepository { return &siteRepo{db: db} }

func (r *siteRepo) FindSiteByID(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var s model.Site
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *siteRepo) FindStallByID(ctx context.Context, id uuid.UUID) (*model.Stall, error) {
	var s model.Stall
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *siteRepo) FindStallByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Stall, error) {
	var s model.Stall
	err := tx.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *siteRepo) CreateSite(ctx context.Context, s *model.Site) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *siteRepo) CreateStall(ctx context.Context, s *model.Stall) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *siteRepo) ListSites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&sites).Error
	return sites, err
}

func (r *siteRepo) ListStalls(ctx context.Context, siteID uuid.UUID) ([]model.Stall, error) {
	var stalls []model.Stall
	err := r.db.WithContext(ctx).Where("site_id = ? AND active = true", siteID).
		Order("name ASC").Find(&stalls).Error
	return stalls, err
}
