package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled show. Bar sessions reference it; the scheduling
// module owns its lifecycle.
type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Date      time.Time `gorm:"type:date;not null;index"`
	StartTime string    `gorm:"type:varchar(5);not null"` // HH:MM
	CreatedAt time.Time
	UpdatedAt time.Time
}
