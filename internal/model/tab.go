package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tab status values. paid is terminal.
const (
	TabAvailable = "available"
	TabOpen      = "open"
	TabPaid      = "paid"
)

// Payment methods accepted when closing a tab.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentPix  = "pix" // instant transfer
)

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentPix}

// Tab (comanda) is one customer's running order inside a session.
// Total is always max(0, Subtotal - Discount).
type Tab struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tab_session_number"`
	Number        int             `gorm:"not null;uniqueIndex:idx_tab_session_number"`
	CustomerName  *string         `gorm:"type:varchar(100)"`
	Status        string          `gorm:"type:varchar(20);not null;default:'available'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentMethod *string         `gorm:"type:varchar(20)"`
	OpenedAt      *time.Time
	ClosedAt      *time.Time

	Items []TabItem `gorm:"foreignKey:TabID"`
}

// TabItem is one stock item's line on a tab. UnitPrice and UnitCost are
// captured on the first add and never refreshed from the catalog.
type TabItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TabID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tab_item_stock"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tab_item_stock"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}
