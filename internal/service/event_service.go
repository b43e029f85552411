package service

import (
	"context"
	"time"

	"comedybar/internal/dto"
	"comedybar/internal/model"
	"comedybar/internal/repository"

	"github.com/google/uuid"
)

// EventService exposes the shows bar sessions are opened against.
type EventService interface {
	Create(ctx context.Context, req dto.CreateEventRequest) (*dto.EventResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error)
	// List returns events from the given day on; nil lists everything.
	List(ctx context.Context, from *time.Time) ([]dto.EventResponse, error)
}

type eventService struct {
	repo repository.EventRepository
}

func NewEventService(repo repository.EventRepository) EventService {
	return &eventService{repo: repo}
}

func (s *eventService) Create(ctx context.Context, req dto.CreateEventRequest) (*dto.EventResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "data inválida, use AAAA-MM-DD"}
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, &ValidationError{Field: "start_time", Message: "horário inválido, use HH:MM"}
	}
	e := &model.Event{Name: req.Name, Date: date, StartTime: req.StartTime}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	resp := eventToResponse(e)
	return &resp, nil
}

func (s *eventService) Get(ctx context.Context, id uuid.UUID) (*dto.EventResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "evento", id)
	}
	resp := eventToResponse(e)
	return &resp, nil
}

func (s *eventService) List(ctx context.Context, from *time.Time) ([]dto.EventResponse, error) {
	events, err := s.repo.List(ctx, from)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.EventResponse, len(events))
	for i := range events {
		resp[i] = eventToResponse(&events[i])
	}
	return resp, nil
}
