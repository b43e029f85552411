package infra

import (
	"fmt"

	"comedybar/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and brings the schema
// up to date (AutoMigrate plus the SQL patches GORM cannot express).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies the schema
// patches. Safe to run on every start; integration tests call it directly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Event{},
		&model.StockItem{},
		&model.StockTransaction{},
		&model.BarSession{},
		&model.Tab{},
		&model.TabItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one open bar session system-wide
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bar_sessions_single_open
		    ON bar_sessions (status)
		    WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS idx_stock_items_low
		    ON stock_items (current_quantity, minimum_quantity)
		    WHERE active = true`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tab_items_quantity_positive') THEN
		    ALTER TABLE tab_items
		      ADD CONSTRAINT chk_tab_items_quantity_positive CHECK (quantity > 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tabs_discount_non_negative') THEN
		    ALTER TABLE tabs
		      ADD CONSTRAINT chk_tabs_discount_non_negative CHECK (discount >= 0);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
