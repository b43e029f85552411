package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StockItemFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

// StockMovementRequest records a manual inventory movement. Sales are
// recorded only by tab close, so "venda" is not accepted here.
type StockMovementRequest struct {
	StockItemID string           `json:"stock_item_id" validate:"required,uuid"`
	Type        string           `json:"type"          validate:"required,oneof=compra ajuste perda transferencia"`
	Quantity    int              `json:"quantity"      validate:"required,ne=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	EventID     *string          `json:"event_id"      validate:"omitempty,uuid"`
	Note        string           `json:"note"          validate:"max=255"`
}

type StockMovementFilter struct {
	StockItemID string `form:"stock_item_id"`
	EventID     string `form:"event_id"`
	Type        string `form:"type"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockItemResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	CurrentQuantity int             `json:"current_quantity"`
	MinimumQuantity int             `json:"minimum_quantity"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	Supplier        *string         `json:"supplier"`
	LowStock        bool            `json:"low_stock"`
}

type StockItemListResponse struct {
	Data  []StockItemResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type StockTransactionResponse struct {
	ID          string          `json:"id"`
	StockItemID string          `json:"stock_item_id"`
	StockItem   string          `json:"stock_item,omitempty"`
	Type        string          `json:"type"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	EventID     *string         `json:"event_id"`
	Note        string          `json:"note"`
	CreatedAt   string          `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockTransactionResponse `json:"data"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}
