package dto

// ─── Ledger operation requests ───────────────────────────────────────────────
// Target item ids travel in the URL path; these bodies carry the rest.

type AllocateRequest struct {
	StallID  string `json:"stall_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

type ReturnRequest struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

type TransferRequest struct {
	DestStallID string `json:"dest_stall_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity"      validate:"required,gt=0"`
	Notes       string `json:"notes"`
}

// SetQuantityRequest is an absolute correction (miscount, spoilage), not a
// delta. Quantity zero is valid.
type SetQuantityRequest struct {
	Quantity int    `json:"quantity" validate:"min=0"`
	Notes    string `json:"notes"`
}

type DeleteItemRequest struct {
	Notes string `json:"notes"`
}

// ─── Movement query ──────────────────────────────────────────────────────────

type MovementFilter struct {
	ItemID  string `form:"item_id"  validate:"omitempty,uuid"`
	SiteID  string `form:"site_id"  validate:"omitempty,uuid"`
	StallID string `form:"stall_id" validate:"omitempty,uuid"`
	Type    string `form:"type"`
	Page    int    `form:"page,default=1"    validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type MovementResponse struct {
	ID                   string  `json:"id"`
	StockItemID          string  `json:"stock_item_id"`
	ItemName             string  `json:"item_name"`
	LinkedStockItemID    *string `json:"linked_stock_item_id"`
	MasterItemID         *string `json:"master_item_id"`
	SiteID               string  `json:"site_id"`
	StallID              *string `json:"stall_id"`
	Type                 string  `json:"type"`
	QuantityChange       int     `json:"quantity_change"`
	QuantityBefore       int     `json:"quantity_before"`
	QuantityAfter        int     `json:"quantity_after"`
	UserID               string  `json:"user_id"`
	UserName             string  `json:"user_name"`
	Notes                string  `json:"notes"`
	CorrelationID        string  `json:"correlation_id"`
	RelatedTransactionID *string `json:"related_transaction_id"`
	CreatedAt            string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
