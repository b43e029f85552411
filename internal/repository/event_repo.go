package repository

import (
	"context"
	"time"

	"comedybar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// List returns events on or after from (all events when from is nil), by date.
	List(ctx context.Context, from *time.Time) ([]model.Event, error)
}

type eventRepo struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) EventRepository { return &eventRepo{db: db} }

func (r *eventRepo) Create(ctx context.Context, e *model.Event) error {
	return translateDBErr(r.db.WithContext(ctx).Create(e).Error)
}

func (r *eventRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translateDBErr(err)
	}
	return &e, nil
}

func (r *eventRepo) List(ctx context.Context, from *time.Time) ([]model.Event, error) {
	q := r.db.WithContext(ctx).Model(&model.Event{})
	if from != nil {
		q = q.Where("date >= ?", from.Format("2006-01-02"))
	}
	var events []model.Event
	err := q.Order("date ASC, start_time ASC").Find(&events).Error
	return events, translateDBErr(err)
}
