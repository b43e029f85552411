package repository

import (
	"context"
	"time"

	"comedybar/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	CreateTx(tx *gorm.DB, s *model.BarSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BarSession, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.BarSession, error)
	// FindByIDForUpdateTx locks the session row until tx ends. Every write of
	// the session aggregates goes through this lock.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.BarSession, error)
	// FindLatestOpen returns the most recently opened open session, skipping
	// sessions of excludeEventID when it is set. ErrNotFound when none.
	FindLatestOpen(ctx context.Context, excludeEventID *uuid.UUID) (*model.BarSession, error)
	// Close moves an open session to closed; ErrNotFound when no open
	// session has that id.
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error
	UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, revenue, cost decimal.Decimal) error
	List(ctx context.Context, page, limit int) ([]model.BarSession, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) CreateTx(tx *gorm.DB, s *model.BarSession) error {
	return translateDBErr(tx.Create(s).Error)
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BarSession, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *sessionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.BarSession, error) {
	var s model.BarSession
	if err := tx.Preload("Event").First(&s, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *sessionRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.BarSession, error) {
	var s model.BarSession
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *sessionRepo) FindLatestOpen(ctx context.Context, excludeEventID *uuid.UUID) (*model.BarSession, error) {
	q := r.db.WithContext(ctx).Preload("Event").Where("status = ?", model.SessionOpen)
	if excludeEventID != nil {
		q = q.Where("event_id <> ?", *excludeEventID)
	}
	var s model.BarSession
	if err := q.Order("opened_at DESC").First(&s).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &s, nil
}

func (r *sessionRepo) Close(ctx context.Context, id uuid.UUID, closedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.BarSession{}).
		Where("id = ? AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":    model.SessionClosed,
			"closed_at": closedAt,
		})
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) UpdateTotalsTx(tx *gorm.DB, id uuid.UUID, revenue, cost decimal.Decimal) error {
	res := tx.Model(&model.BarSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_revenue": revenue,
		"total_cost":    cost,
	})
	if res.Error != nil {
		return translateDBErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) List(ctx context.Context, page, limit int) ([]model.BarSession, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.BarSession{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateDBErr(err)
	}

	var sessions []model.BarSession
	err := q.Preload("Event").Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&sessions).Error
	return sessions, total, translateDBErr(err)
}

func (r *sessionRepo) DB() *gorm.DB { return r.db }
