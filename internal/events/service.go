package events

import (
	"context"
	"fmt"
	"math"
	"time"

	"seatwise/internal/shared/constants"
	"seatwise/internal/users"
	"seatwise/pkg/apperrors"
	"seatwise/pkg/cache"
	"seatwise/pkg/logger"

	"github.com/google/uuid"
)

// SeatGenerator builds the seat grid for an event when it is published.
// Implemented by the seats package; declared here to avoid a circular import.
type SeatGenerator interface {
	GenerateSeats(ctx context.Context, eventID uuid.UUID, maxSeats int, basePrice, vipPrice float64) (int, error)
}

type Service interface {
	SetCacheService(cacheService cache.Service)
	SetSeatGenerator(generator SeatGenerator)

	CreateEvent(ctx context.Context, actor users.Actor, req *CreateEventRequest) (*EventResponse, error)
	UpdateEvent(ctx context.Context, actor users.Actor, id uuid.UUID, req *UpdateEventRequest) (*EventResponse, error)
	PublishEvent(ctx context.Context, actor users.Actor, id uuid.UUID) (*EventResponse, error)
	CancelEvent(ctx context.Context, actor users.Actor, id uuid.UUID) (*EventResponse, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
}

type service struct {
	repo          Repository
	cacheService  cache.Service
	seatGenerator SeatGenerator
	log           *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		log:  logger.GetDefault().WithFields(map[string]interface{}{"component": "events"}),
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// SetSeatGenerator injects the seat layout generator dependency
func (s *service) SetSeatGenerator(generator SeatGenerator) {
	s.seatGenerator = generator
}

func (s *service) CreateEvent(ctx context.Context, actor users.Actor, req *CreateEventRequest) (*EventResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can create events", apperrors.ErrInvalid)
	}

	event := &Event{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		DateTime:    req.DateTime,
		Status:      EventStatusDraft,
		BasePrice:   req.BasePrice,
		VipPrice:    req.VipPrice,
		MaxSeats:    req.MaxSeats,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidateListCache(ctx)

	resp := toEventResponse(event)
	return &resp, nil
}

func (s *service) UpdateEvent(ctx context.Context, actor users.Actor, id uuid.UUID, req *UpdateEventRequest) (*EventResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can update events", apperrors.ErrInvalid)
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Pricing and capacity are fixed once the seat grid exists.
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.DateTime != nil {
		updates["date_time"] = *req.DateTime
	}
	if event.Status == EventStatusDraft {
		if req.BasePrice != nil {
			updates["base_price"] = *req.BasePrice
		}
		if req.VipPrice != nil {
			updates["vip_price"] = *req.VipPrice
		}
	}

	if len(updates) == 0 {
		resp := toEventResponse(event)
		return &resp, nil
	}

	updated, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, id)

	resp := toEventResponse(updated)
	return &resp, nil
}

// PublishEvent transitions a draft event to published and generates its
// seat grid. Re-publishing regenerates the grid, which is safe only while
// no seats have been sold; the generator enforces that.
func (s *service) PublishEvent(ctx context.Context, actor users.Actor, id uuid.UUID) (*EventResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can publish events", apperrors.ErrInvalid)
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Status != EventStatusDraft {
		return nil, fmt.Errorf("%w: event is %s, only draft events can be published", apperrors.ErrConflict, event.Status)
	}
	if !event.DateTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: event date is in the past", apperrors.ErrInvalid)
	}

	if s.seatGenerator != nil {
		count, err := s.seatGenerator.GenerateSeats(ctx, event.ID, event.MaxSeats, event.BasePrice, event.VipPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to generate seats: %w", err)
		}
		s.log.InfoContext(ctx, "Seat Grid Generated",
			"event_id", event.ID.String(),
			"seats", count,
		)
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{"status": EventStatusPublished})
	if err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, id)

	resp := toEventResponse(updated)
	return &resp, nil
}

func (s *service) CancelEvent(ctx context.Context, actor users.Actor, id uuid.UUID) (*EventResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff can cancel events", apperrors.ErrInvalid)
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Status == EventStatusCancelled || event.Status == EventStatusCompleted {
		return nil, fmt.Errorf("%w: event is already %s", apperrors.ErrConflict, event.Status)
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{"status": EventStatusCancelled})
	if err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, id)

	resp := toEventResponse(updated)
	return &resp, nil
}

func (s *service) GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	if s.cacheService != nil {
		var cached EventResponse
		err := s.cacheService.GetOrSet(ctx, constants.BuildEventKey(id.String()), constants.TTLEvent,
			func() (interface{}, error) {
				event, err := s.repo.GetByID(ctx, id)
				if err != nil {
					return nil, err
				}
				return toEventResponse(event), nil
			}, &cached)
		if err != nil {
			return nil, err
		}
		return &cached, nil
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(event)
	return &resp, nil
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}

	fetch := func() (interface{}, error) {
		events, total, err := s.repo.GetAll(ctx, query)
		if err != nil {
			return nil, err
		}

		responses := make([]EventResponse, len(events))
		for i := range events {
			responses[i] = toEventResponse(&events[i])
		}

		return &PaginatedEvents{
			Events:     responses,
			Total:      total,
			Page:       query.Page,
			PageSize:   query.PageSize,
			TotalPages: int(math.Ceil(float64(total) / float64(query.PageSize))),
		}, nil
	}

	if s.cacheService != nil {
		var cached PaginatedEvents
		key := constants.BuildEventListKey(query.Status, query.Page, query.PageSize)
		if err := s.cacheService.GetOrSet(ctx, key, constants.TTLEventList, fetch, &cached); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	return result.(*PaginatedEvents), nil
}

func (s *service) invalidateEventCache(ctx context.Context, id uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildEventKey(id.String())); err != nil {
		s.log.WithError(err).Warn("event cache invalidation failed")
	}
	s.invalidateListCache(ctx)
}

func (s *service) invalidateListCache(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.PrefixEventList+":*"); err != nil {
		s.log.WithError(err).Warn("event list cache invalidation failed")
	}
}
