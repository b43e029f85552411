package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is an inventory-tracked product sold at the bar.
type StockItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string          `gorm:"index;not null"`
	Category        string          `gorm:"not null"`
	Unit            string          `gorm:"not null;default:'unidade'"`
	CurrentQuantity int             `gorm:"not null;default:0"`
	MinimumQuantity int             `gorm:"not null;default:0"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Supplier        *string
	Active          bool `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLowStock reports current <= minimum. Negative stock left by oversold
// tabs is also low.
func (s StockItem) IsLowStock() bool {
	return s.CurrentQuantity <= s.MinimumQuantity
}
