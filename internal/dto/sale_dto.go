package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecordSaleRequest struct {
	StallID string            `json:"stall_id" validate:"required,uuid"`
	Items   []SaleItemRequest `json:"items"    validate:"required,min=1,dive"`
}

// SaleItemRequest carries an optional client-side unit price. The committed
// price is always re-read from the stock record inside the transaction; if a
// client price is present and disagrees, the sale is rejected rather than
// silently recalculated.
type SaleItemRequest struct {
	ItemID       string           `json:"item_id"  validate:"required,uuid"`
	Quantity     int              `json:"quantity" validate:"required,gte=1"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

type DeleteSaleRequest struct {
	Justification string `json:"justification" validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type SaleFilter struct {
	SiteID  string `form:"site_id"  validate:"omitempty,uuid"`
	StallID string `form:"stall_id" validate:"omitempty,uuid"`
	Date    string `form:"date"` // YYYY-MM-DD
	// Status: "active" (default) | "deleted" | "all"
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type SaleResponse struct {
	ID          string             `json:"id"`
	SiteID      string             `json:"site_id"`
	StallID     string             `json:"stall_id"`
	StaffID     string             `json:"staff_id"`
	StaffName   string             `json:"staff_name"`
	Items       []SaleItemResponse `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      string             `json:"status"`
	DeletedByName         *string  `json:"deleted_by_name,omitempty"`
	DeletedAt             *string  `json:"deleted_at,omitempty"`
	DeletionJustification *string  `json:"deletion_justification,omitempty"`
	CreatedAt             string   `json:"created_at"`
}

type SaleListResponse struct {
	Data []SaleResponse `json:"data"`
	// TotalAmount sums active sales in the filtered set; deleted sales are
	// listed (when requested) but never counted.
	TotalAmount decimal.Decimal `json:"total_amount"`
	Total       int64           `json:"total"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
}
