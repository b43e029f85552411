package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock transaction types.
const (
	StockCompra        = "compra"
	StockVenda         = "venda"
	StockAjuste        = "ajuste"
	StockPerda         = "perda"
	StockTransferencia = "transferencia"
)

// StockTransaction is an append-only audit entry for an on-hand quantity
// change. Rows are never updated or deleted.
type StockTransaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(20);not null;index"`
	Quantity    int             `gorm:"not null"` // positive = in, negative = out
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	EventID     *uuid.UUID      `gorm:"type:uuid;index"`
	Note        string
	CreatedAt   time.Time

	StockItem *StockItem `gorm:"foreignKey:StockItemID"`
}
