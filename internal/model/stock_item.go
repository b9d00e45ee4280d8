package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is the unit of inventory. A single table holds both scopes:
// StallID == nil  → master record (site-level inventory)
// StallID != nil  → stall record (allocated to one point of sale)
//
// OriginalMasterItemID is set only on stall records that were created by
// allocating from a master; quantity changes on such records propagate to
// the linked master. Stall records created directly carry no link.
type StockItem struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string    `gorm:"index;not null"`
	Category             string    `gorm:"not null"`
	Quantity             int       `gorm:"not null;default:0"`
	Unit                 string    `gorm:"not null;default:'pcs'"`
	CostPrice            *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Price                decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	LowStockThreshold    int              `gorm:"not null;default:5"`
	ImageURL             *string
	SiteID               uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_items_scope"`
	StallID              *uuid.UUID `gorm:"type:uuid;index:idx_stock_items_scope"`
	OriginalMasterItemID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Site  *Site  `gorm:"foreignKey:SiteID"`
	Stall *Stall `gorm:"foreignKey:StallID"`
}

func (StockItem) TableName() string { return "stock_items" }

// IsMaster reports whether the record is site-level inventory.
func (s *StockItem) IsMaster() bool { return s.StallID == nil }

// IsLinked reports whether the record is a stall item allocated from a master.
func (s *StockItem) IsLinked() bool { return s.StallID != nil && s.OriginalMasterItemID != nil }
