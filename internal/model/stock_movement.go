package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types. One constant per ledger operation side.
const (
	MovementCreateMaster      = "create-master"
	MovementCreateStallDirect = "create-stall-direct"
	MovementAllocateOut       = "allocate-out"
	MovementReceiveAllocation = "receive-allocation"
	MovementReturnOut         = "return-out"
	MovementReceiveReturn     = "receive-return"
	MovementSaleFromStall     = "sale-from-stall"
	MovementSaleAffectsMaster = "sale-affects-master"
	MovementDirectUpdate      = "direct-update"
	MovementDirectMasterUpd   = "direct-master-update"
	MovementTransferOut       = "transfer-out"
	MovementTransferIn        = "transfer-in"
	MovementBatchSet          = "batch-set"
	MovementBatchDelete       = "batch-delete"
	MovementDelete            = "delete"
)

// StockMovement is one append-only audit row. Operations touching two
// records write one row per record sharing a CorrelationID.
//
// Site/stall/master ids and the item name are denormalized so the trail
// stays readable after the stock item itself has been deleted. Rows are
// never updated or removed.
type StockMovement struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemName          string     `gorm:"not null"`
	LinkedStockItemID *uuid.UUID `gorm:"type:uuid"`
	MasterItemID      *uuid.UUID `gorm:"type:uuid;index"`
	SiteID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	StallID           *uuid.UUID `gorm:"type:uuid;index"`
	Type              string     `gorm:"not null;index"`
	QuantityChange    int        `gorm:"not null"` // signed delta on StockItemID
	QuantityBefore    int        `gorm:"not null"`
	QuantityAfter     int        `gorm:"not null"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null"`
	UserName          string     `gorm:"not null"`
	Notes             string
	CorrelationID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	RelatedTransactionID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt            time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }
