package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	EventID string `json:"event_id" validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID           string          `json:"id"`
	EventID      string          `json:"event_id"`
	EventName    string          `json:"event_name,omitempty"`
	Status       string          `json:"status"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	OpenedAt     string          `json:"opened_at"`
	ClosedAt     *string         `json:"closed_at"`
}

type CloseSessionResponse struct {
	Session SessionResponse `json:"session"`
	// OpenTabs counts tabs that were not paid when the session was closed.
	OpenTabs int `json:"open_tabs"`
}

type TabCounts struct {
	Available int `json:"available"`
	Open      int `json:"open"`
	Paid      int `json:"paid"`
}

type SessionSummaryResponse struct {
	Session   SessionResponse            `json:"session"`
	Tabs      TabCounts                  `json:"tabs"`
	Margin    decimal.Decimal            `json:"margin"`
	ByPayment map[string]decimal.Decimal `json:"by_payment"`
	// Outstanding is the running total of tabs still open.
	Outstanding decimal.Decimal `json:"outstanding"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
