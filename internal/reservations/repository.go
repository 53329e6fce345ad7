package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatwise/internal/seats"
	"seatwise/internal/users"
	"seatwise/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository covers reservations, payments, and the seat/event/user rows
// a reservation transaction touches. The seat accessors mirror the seats
// package's lock discipline so both packages serialize on the same row.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateReservation(ctx context.Context, reservation *Reservation) error
	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*Reservation, error)
	UpdateReservation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	HasActiveReservation(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Reservation, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Reservation, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID) error

	CreatePayment(ctx context.Context, payment *Payment) error

	GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*seats.Seat, error)
	UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error
	ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error

	GetEvent(ctx context.Context, eventID uuid.UUID) (*seats.Event, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*users.User, error)
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

func (r *repository) CreateReservation(ctx context.Context, reservation *Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to lock reservation: %w", err)
	}
	return &reservation, nil
}

func (r *repository) UpdateReservation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Reservation{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (r *repository) HasActiveReservation(ctx context.Context, userID, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Reservation{}).
		Where("user_id = ? AND event_id = ? AND status IN ?", userID, eventID,
			[]Status{StatusPending, StatusConfirmed}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Reservation, error) {
	var reservations []Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reservations).Error
	return reservations, err
}

// ListByEvent orders pending first so the approval queue surfaces work.
func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Reservation, error) {
	var reservations []Reservation
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END, created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&Reservation{}).
		Where("id = ?", id).
		Update("email_sent", true).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*seats.Seat, error) {
	var seat seats.Seat
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

func (r *repository) UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&seats.Seat{}).Where("id = ?", seatID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: seat %s", apperrors.ErrNotFound, seatID)
	}
	return nil
}

func (r *repository) ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&seats.Seat{}).
		Where("id = ? AND status = ? AND hold_expiry < ?", seatID, seats.StatusReserved, now).
		Updates(map[string]interface{}{
			"status":      seats.StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		}).Error
}

func (r *repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*seats.Event, error) {
	var event seats.Event
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) GetUser(ctx context.Context, userID uuid.UUID) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}
