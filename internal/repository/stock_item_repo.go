package repository

import (
	"context"

	"comedybar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockItemFilter defines filters for listing stock items.
type StockItemFilter struct {
	Name     string
	Category string
	LowStock bool
	Page     int
	Limit    int
}

type StockItemRepository interface {
	Create(ctx context.Context, s *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	// FindByIDTx reads the item under a share lock, enough to price a line.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	// FindByIDForUpdateTx locks the item row for a read-then-write.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	List(ctx context.Context, filter StockItemFilter) ([]model.StockItem, int64, error)
	// AdjustQuantityTx adds delta (signed) to the on-hand quantity. No floor is
	// applied: overselling leaves negative stock.
	AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error

	DB() *gorm.DB
}

type stockItemRepo struct{ db *gorm.DB }

func NewStockItemRepository(db *gorm.DB) StockItemRepository { return &stockItemRepo{db: db} }

func (r *stockItemRepo) Create(ctx context.Context, s *model.StockItem) error {
	return translateDBErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *stockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var s model.StockItem
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *stockItemRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var s model.StockItem
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *stockItemRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var s model.StockItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *stockItemRepo) List(ctx context.Context, filter StockItemFilter) ([]model.StockItem, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockItem{}).Where("active = true")
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		q = q.Where("current_quantity <= minimum_quantity")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateDBErr(err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var items []model.StockItem
	err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&items).Error
	return items, total, translateDBErr(err)
}

func (r *stockItemRepo) AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.StockItem{}).Where("id = ?", id).
		Update("current_quantity", gorm.Expr("current_quantity + ?", delta))
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockItemRepo) DB() *gorm.DB { return r.db }
