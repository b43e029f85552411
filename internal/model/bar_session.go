package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// BarSession is the bar's operating period for one event.
// TotalRevenue and TotalCost are rebuilt from paid tabs every time a tab
// is paid; they are never adjusted incrementally.
type BarSession struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status       string          `gorm:"type:varchar(20);not null;default:'open'"`
	TotalRevenue decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OpenedAt     time.Time       `gorm:"not null;index"`
	ClosedAt     *time.Time

	Event *Event `gorm:"foreignKey:EventID"`
	Tabs  []Tab  `gorm:"foreignKey:SessionID"`
}
