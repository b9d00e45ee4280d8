package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale states. Deleted is terminal: there is no undelete transition.
const (
	SaleStatusActive  = "active"
	SaleStatusDeleted = "deleted"
)

// SaleTransaction is one committed cart. TotalAmount always equals the sum
// of the line totals; lines snapshot item name and unit price at sale time.
// Deletion is soft: the row stays for audit, flagged with actor, timestamp
// and a mandatory justification, and excluded from aggregate reporting.
type SaleTransaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SiteID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	StallID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	StaffID    uuid.UUID  `gorm:"type:uuid;not null"`
	StaffName  string     `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index"`
	DeletedByID *uuid.UUID      `gorm:"type:uuid"`
	DeletedByName *string
	DeletedAt     *time.Time
	DeletionJustification *string
	CreatedAt             time.Time

	Items []SoldItem `gorm:"foreignKey:TransactionID"`
}

func (SaleTransaction) TableName() string { return "sale_transactions" }

// SoldItem is one line of a sale.
type SoldItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"not null"` // snapshot at sale time
	Quantity      int             `gorm:"not null"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (SoldItem) TableName() string { return "sold_items" }
