package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateStockItemRequest creates a master record when stall_id is absent, or
// a direct (unlinked) stall record when stall_id is present.
type CreateStockItemRequest struct {
	Name              string           `json:"name"     validate:"required,min=2,max=120"`
	Category          string           `json:"category" validate:"required"`
	Quantity          int              `json:"quantity" validate:"min=0"`
	Unit              string           `json:"unit"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Price             decimal.Decimal  `json:"price" validate:"required"`
	LowStockThreshold int              `json:"low_stock_threshold" validate:"min=0"`
	ImageURL          *string          `json:"image_url"`
	SiteID            string           `json:"site_id"  validate:"required,uuid"`
	StallID           *string          `json:"stall_id" validate:"omitempty,uuid"`
}

// UpdateStockItemRequest edits descriptive attributes only. Quantity changes
// go through the ledger endpoints so they are logged and propagated.
type UpdateStockItemRequest struct {
	Name              *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Category          *string          `json:"category"`
	Unit              *string          `json:"unit"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Price             *decimal.Decimal `json:"price"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitempty,min=0"`
	ImageURL          *string          `json:"image_url"`
}

type BatchSetQuantityRequest struct {
	Items []BatchSetQuantityItem `json:"items" validate:"required,min=1,dive"`
	Notes string                 `json:"notes"`
}

type BatchSetQuantityItem struct {
	ItemID   string `json:"item_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type BatchDeleteRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,uuid"`
	Notes   string   `json:"notes"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type StockItemFilter struct {
	SiteID   string `form:"site_id"  validate:"omitempty,uuid"`
	StallID  string `form:"stall_id" validate:"omitempty,uuid"`
	// Scope: "master" = site-level records only, "stall" = stall records only,
	// "" = both.
	Scope    string `form:"scope" validate:"omitempty,oneof=master stall"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockItemResponse struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Category             string           `json:"category"`
	Quantity             int              `json:"quantity"`
	Unit                 string           `json:"unit"`
	CostPrice            *decimal.Decimal `json:"cost_price"`
	Price                decimal.Decimal  `json:"price"`
	LowStockThreshold    int              `json:"low_stock_threshold"`
	ImageURL             *string          `json:"image_url"`
	SiteID               string           `json:"site_id"`
	StallID              *string          `json:"stall_id"`
	OriginalMasterItemID *string          `json:"original_master_item_id"`
	LowStock             bool             `json:"low_stock"`
	UpdatedAt            string           `json:"updated_at"`
}

type StockItemListResponse struct {
	Data  []StockItemResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}
