package repository

import (
	"context"

	"comedybar/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TabRepository covers tabs and their line items. Methods ending in Tx must
// be given the live transaction; a nil tx is only valid for in-memory fakes.
type TabRepository interface {
	CreateBatchTx(tx *gorm.DB, tabs []model.Tab) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tab, error)
	// FindByIDForUpdateTx reads the tab and locks its row until the tx ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Tab, error)
	// FindDetail loads the tab with its line items and their stock items.
	FindDetail(ctx context.Context, id uuid.UUID) (*model.Tab, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Tab, error)
	// ListPaidWithItemsTx returns the session's paid tabs with their line items.
	ListPaidWithItemsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.Tab, error)
	UpdateFieldsTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, subtotal, total decimal.Decimal) error

	FindItemByIDTx(tx *gorm.DB, id uuid.UUID) (*model.TabItem, error)
	FindItemByStockTx(tx *gorm.DB, tabID, stockItemID uuid.UUID) (*model.TabItem, error)
	CreateItemTx(tx *gorm.DB, it *model.TabItem) error
	// IncrementItemTx adds delta to the line quantity and rebuilds its total
	// from the captured unit price.
	IncrementItemTx(tx *gorm.DB, id uuid.UUID, delta int) error
	SetItemQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int, total decimal.Decimal) error
	DeleteItemTx(tx *gorm.DB, id uuid.UUID) error
	ListItemsTx(tx *gorm.DB, tabID uuid.UUID) ([]model.TabItem, error)

	DB() *gorm.DB
}

type tabRepo struct{ db *gorm.DB }

func NewTabRepository(db *gorm.DB) TabRepository { return &tabRepo{db: db} }

func (r *tabRepo) CreateBatchTx(tx *gorm.DB, tabs []model.Tab) error {
	return translateDBErr(tx.Create(&tabs).Error)
}

func (r *tabRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tab, error) {
	var t model.Tab
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &t, nil
}

func (r *tabRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Tab, error) {
	var t model.Tab
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &t, nil
}

func (r *tabRepo) FindDetail(ctx context.Context, id uuid.UUID) (*model.Tab, error) {
	var t model.Tab
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.StockItem").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &t, nil
}

func (r *tabRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Tab, error) {
	var tabs []model.Tab
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("number ASC").Find(&tabs).Error
	return tabs, translateDBErr(err)
}

func (r *tabRepo) ListPaidWithItemsTx(tx *gorm.DB, sessionID uuid.UUID) ([]model.Tab, error) {
	var tabs []model.Tab
	err := tx.Preload("Items").
		Where("session_id = ? AND status = ?", sessionID, model.TabPaid).
		Order("number ASC").Find(&tabs).Error
	return tabs, translateDBErr(err)
}

func (r *tabRepo) UpdateFieldsTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	res := tx.Model(&model.Tab{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tabRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, subtotal, total decimal.Decimal) error {
	return r.UpdateFieldsTx(tx, id, map[string]interface{}{
		"subtotal": subtotal,
		"total":    total,
	})
}

func (r *tabRepo) FindItemByIDTx(tx *gorm.DB, id uuid.UUID) (*model.TabItem, error) {
	var it model.TabItem
	if err := tx.First(&it, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &it, nil
}

func (r *tabRepo) FindItemByStockTx(tx *gorm.DB, tabID, stockItemID uuid.UUID) (*model.TabItem, error) {
	var it model.TabItem
	err := tx.Where("tab_id = ? AND stock_item_id = ?", tabID, stockItemID).First(&it).Error
	if err != nil {
		return nil, translateDBErr(err)
	}
	return &it, nil
}

func (r *tabRepo) CreateItemTx(tx *gorm.DB, it *model.TabItem) error {
	return translateDBErr(tx.Create(it).Error)
}

func (r *tabRepo) IncrementItemTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.TabItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity": gorm.Expr("quantity + ?", delta),
		"total":    gorm.Expr("unit_price * (quantity + ?)", delta),
	})
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tabRepo) SetItemQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int, total decimal.Decimal) error {
	res := tx.Model(&model.TabItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity": quantity,
		"total":    total,
	})
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tabRepo) DeleteItemTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Delete(&model.TabItem{}, "id = ?", id)
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tabRepo) ListItemsTx(tx *gorm.DB, tabID uuid.UUID) ([]model.TabItem, error) {
	var items []model.TabItem
	err := tx.Where("tab_id = ?", tabID).Order("created_at ASC").Find(&items).Error
	return items, translateDBErr(err)
}

func (r *tabRepo) DB() *gorm.DB { return r.db }
