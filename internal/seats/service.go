package seats

import (
	"context"
	"fmt"
	"time"

	"seatwise/internal/users"
	"seatwise/pkg/apperrors"
	"seatwise/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	HoldSeat(ctx context.Context, actor users.Actor, seatID uuid.UUID) (*HoldResponse, error)
	ReleaseSeat(ctx context.Context, seatID uuid.UUID) error
	ListSeats(ctx context.Context, eventID uuid.UUID) (*SeatMapResponse, error)
	GetSeat(ctx context.Context, seatID uuid.UUID) (*SeatResponse, error)

	// GenerateSeats satisfies the events package's SeatGenerator.
	GenerateSeats(ctx context.Context, eventID uuid.UUID, maxSeats int, basePrice, vipPrice float64) (int, error)
}

type service struct {
	repo    Repository
	holdTTL time.Duration
	log     *logger.Logger
	now     func() time.Time
}

func NewService(repo Repository, holdTTL time.Duration) Service {
	return &service{
		repo:    repo,
		holdTTL: holdTTL,
		log:     logger.GetDefault().WithFields(map[string]interface{}{"component": "seats"}),
		now:     time.Now,
	}
}

// HoldSeat places a time-boxed hold on an available seat. The transaction
// locks the seat row, so concurrent hold attempts for the same seat
// serialize; the loser observes RESERVED and gets a conflict. A hold whose
// TTL already elapsed is reclaimed in place before the availability check,
// so a fresh holder never waits for a read-path sweep.
func (s *service) HoldSeat(ctx context.Context, actor users.Actor, seatID uuid.UUID) (*HoldResponse, error) {
	var expiry time.Time

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		seat, err := tx.GetSeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}

		event, err := tx.GetEvent(ctx, seat.EventID)
		if err != nil {
			return err
		}

		now := s.now()
		if event.Status != "published" {
			return fmt.Errorf("%w: event is not published", apperrors.ErrInvalid)
		}
		if !event.DateTime.After(now) {
			return fmt.Errorf("%w: event date has passed", apperrors.ErrInvalid)
		}

		if seat.HoldExpired(now) {
			if err := tx.ReclaimSeat(ctx, seatID, now); err != nil {
				return fmt.Errorf("failed to reclaim expired hold: %w", err)
			}
			seat.Status = StatusAvailable
			seat.HoldExpiry = nil
		}

		if seat.Status != StatusAvailable {
			return fmt.Errorf("%w: seat is %s", apperrors.ErrConflict, seat.Status)
		}

		expiry = now.Add(s.holdTTL)
		return tx.UpdateSeat(ctx, seatID, map[string]interface{}{
			"status":      StatusReserved,
			"is_reserved": true,
			"hold_expiry": expiry,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.LogHoldAcquired(ctx, seatID.String(), actor.ID.String(), expiry)

	return &HoldResponse{
		SeatID:     seatID.String(),
		HoldExpiry: expiry,
	}, nil
}

// ReleaseSeat releases a live hold. An already-expired hold is not
// releasable by this path; it belongs to the reconciler. The two paths
// must not race to double-clear the same seat, which the row lock plus
// the expiry check here guarantees.
func (s *service) ReleaseSeat(ctx context.Context, seatID uuid.UUID) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		seat, err := tx.GetSeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}

		now := s.now()
		if seat.Status != StatusReserved {
			return fmt.Errorf("%w: seat is %s, not held", apperrors.ErrConflict, seat.Status)
		}
		if seat.HoldExpired(now) {
			return fmt.Errorf("%w: hold already expired, awaiting reclaim", apperrors.ErrConflict)
		}

		return tx.UpdateSeat(ctx, seatID, map[string]interface{}{
			"status":      StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		})
	})
	if err != nil {
		return err
	}

	s.log.LogHoldReleased(ctx, seatID.String())
	return nil
}

// ListSeats serves the seat map for an event. The lazy sweep runs first:
// every expired hold on the event is reclaimed before the snapshot is
// read, so callers never observe a stale hold.
func (s *service) ListSeats(ctx context.Context, eventID uuid.UUID) (*SeatMapResponse, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	now := s.now()
	reclaimed, err := s.repo.ReclaimExpired(ctx, eventID, now)
	if err != nil {
		return nil, fmt.Errorf("expiry sweep failed: %w", err)
	}
	s.log.LogExpiredHoldsReclaimed(ctx, eventID.String(), reclaimed)

	seatRows, err := s.repo.GetSeatsByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	resp := &SeatMapResponse{
		EventID: eventID.String(),
		Seats:   make([]SeatResponse, len(seatRows)),
		Total:   len(seatRows),
	}
	for i := range seatRows {
		resp.Seats[i] = toSeatResponse(&seatRows[i])
		if seatRows[i].Status == StatusAvailable {
			resp.Available++
		}
	}
	return resp, nil
}

func (s *service) GetSeat(ctx context.Context, seatID uuid.UUID) (*SeatResponse, error) {
	seat, err := s.repo.GetSeatByID(ctx, seatID)
	if err != nil {
		return nil, err
	}

	// Single-seat reads honor expiry too: reclaim in place, then re-read.
	if seat.HoldExpired(s.now()) {
		if err := s.repo.ReclaimSeat(ctx, seatID, s.now()); err != nil {
			return nil, err
		}
		seat, err = s.repo.GetSeatByID(ctx, seatID)
		if err != nil {
			return nil, err
		}
	}

	resp := toSeatResponse(seat)
	return &resp, nil
}
