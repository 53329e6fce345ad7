package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatwise/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the seat persistence surface. Transaction runs fn against
// a repository bound to a single database transaction; GetSeatForUpdate
// takes an exclusive row lock and is only meaningful inside Transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*Seat, error)
	GetSeatByID(ctx context.Context, seatID uuid.UUID) (*Seat, error)
	GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error)
	UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error

	// ReclaimExpired is the bulk lazy sweep over one event's seats.
	// ReclaimSeat is the single-row variant used inside locked transactions.
	// Both are idempotent: the guard in the WHERE clause makes a second
	// run (or a racing release) a no-op.
	ReclaimExpired(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error)
	ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error

	CreateSeats(ctx context.Context, seats []Seat) error
	DeleteSeatsByEventID(ctx context.Context, eventID uuid.UUID) error
	CountSoldSeats(ctx context.Context, eventID uuid.UUID) (int64, error)

	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", seatID).
		First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: seat %s", apperrors.ErrNotFound, seatID)
		}
		return nil, fmt.Errorf("failed to lock seat: %w", err)
	}
	return &seat, nil
}

func (r *repository) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", seatID).First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: seat %s", apperrors.ErrNotFound, seatID)
		}
		return nil, err
	}
	return &seat, nil
}

func (r *repository) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("section, row, seat_number").
		Find(&seats).Error
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (r *repository) UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Seat{}).Where("id = ?", seatID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: seat %s", apperrors.ErrNotFound, seatID)
	}
	return nil
}

func (r *repository) ReclaimExpired(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Seat{}).
		Where("event_id = ? AND status = ? AND hold_expiry < ?", eventID, StatusReserved, now).
		Updates(map[string]interface{}{
			"status":      StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&Seat{}).
		Where("id = ? AND status = ? AND hold_expiry < ?", seatID, StatusReserved, now).
		Updates(map[string]interface{}{
			"status":      StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		}).Error
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(seats, 500).Error
}

func (r *repository) DeleteSeatsByEventID(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&Seat{}).Error
}

func (r *repository) CountSoldSeats(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Seat{}).
		Where("event_id = ? AND status = ?", eventID, StatusSold).
		Count(&count).Error
	return count, err
}

func (r *repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
		}
		return nil, err
	}
	return &event, nil
}
