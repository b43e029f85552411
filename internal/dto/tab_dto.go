package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenTabRequest struct {
	CustomerName *string `json:"customer_name" validate:"omitempty,max=100"`
}

type UpdateCustomerNameRequest struct {
	CustomerName *string `json:"customer_name" validate:"omitempty,max=100"`
}

// AddItemRequest adds a stock item to a tab. Quantity defaults to 1.
type AddItemRequest struct {
	StockItemID string `json:"stock_item_id" validate:"required,uuid"`
	Quantity    *int   `json:"quantity"      validate:"omitempty,min=1"`
}

// UpdateItemQuantityRequest sets a line quantity; zero or negative removes the line.
type UpdateItemQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type ApplyDiscountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,min=0"`
}

type CloseTabRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card pix"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TabResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	Number        int             `json:"number"`
	CustomerName  *string         `json:"customer_name"`
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod *string         `json:"payment_method"`
	OpenedAt      *string         `json:"opened_at"`
	ClosedAt      *string         `json:"closed_at"`
}

type TabItemResponse struct {
	ID          string          `json:"id"`
	StockItemID string          `json:"stock_item_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type TabDetailResponse struct {
	TabResponse
	Items []TabItemResponse `json:"items"`
}
