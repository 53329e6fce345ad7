package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatwise/internal/seats"
	"seatwise/internal/shared/config"
	"seatwise/internal/users"
	"seatwise/pkg/apperrors"
	"seatwise/pkg/logger"

	"github.com/google/uuid"
)

// QREncoder renders a payload into an image data URL. Pure function, no
// side effects on seat state.
type QREncoder interface {
	Encode(payload interface{}) (string, error)
}

// TicketNotifier dispatches the ticket email after a reservation commits.
// Failure must never roll back or fail the reservation.
type TicketNotifier interface {
	SendTicketEmail(ctx context.Context, job TicketEmailJob) error
}

// TicketEmailJob carries everything the mailer needs to render a ticket.
type TicketEmailJob struct {
	To              string  `json:"to"`
	UserName        string  `json:"user_name"`
	ReservationID   string  `json:"reservation_id"`
	ReservationCode string  `json:"reservation_code"`
	EventTitle      string  `json:"event_title"`
	EventDate       string  `json:"event_date"`
	SeatInfo        string  `json:"seat_info"`
	TotalAmount     float64 `json:"total_amount"`
	QRCode          string  `json:"qr_code"`
}

type Service interface {
	CreateReservation(ctx context.Context, actor users.Actor, eventID, seatID uuid.UUID, paymentMethod, paymentReference string) (*ReservationResponse, error)
	CancelReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error)
	ApproveReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error)
	RejectReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error)
	GetReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error)
	ListMyReservations(ctx context.Context, actor users.Actor) ([]ReservationResponse, error)
	ListEventReservations(ctx context.Context, actor users.Actor, eventID uuid.UUID) ([]ReservationResponse, error)
}

type service struct {
	repo     Repository
	qr       QREncoder
	notifier TicketNotifier
	booking  config.BookingConfig
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, qr QREncoder, notifier TicketNotifier, booking config.BookingConfig) Service {
	return &service{
		repo:     repo,
		qr:       qr,
		notifier: notifier,
		booking:  booking,
		log:      logger.GetDefault().WithFields(map[string]interface{}{"component": "reservations"}),
		now:      time.Now,
	}
}

// CreateReservation converts a live hold into a durable reservation. The
// whole protocol runs under an exclusive lock on the seat row, so only
// one concurrent attempt per seat proceeds past validation. A hold whose
// TTL elapsed mid-flight yields the distinct hold-expired error and the
// seat is reclaimed after rollback.
func (s *service) CreateReservation(ctx context.Context, actor users.Actor, eventID, seatID uuid.UUID, paymentMethod, paymentReference string) (*ReservationResponse, error) {
	var reservation Reservation
	var emailJob *TicketEmailJob

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		seat, err := tx.GetSeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}

		now := s.now()
		if seat.Status != seats.StatusReserved {
			return fmt.Errorf("%w: seat is %s, not held", apperrors.ErrConflict, seat.Status)
		}
		// RESERVED with no expiry means a pending reservation already
		// owns the seat; only a time-boxed hold is convertible.
		if seat.HoldExpiry == nil {
			return fmt.Errorf("%w: seat is already reserved", apperrors.ErrConflict)
		}
		if seat.HoldExpired(now) {
			return fmt.Errorf("cannot reserve seat %s: %w", seatID, apperrors.ErrHoldExpired)
		}
		if seat.EventID != eventID {
			return fmt.Errorf("%w: seat does not belong to this event", apperrors.ErrNotFound)
		}

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event.Status != "published" {
			return fmt.Errorf("%w: event is not published", apperrors.ErrInvalid)
		}
		if !event.DateTime.After(now) {
			return fmt.Errorf("%w: event date has passed", apperrors.ErrInvalid)
		}

		duplicate, err := tx.HasActiveReservation(ctx, actor.ID, eventID)
		if err != nil {
			return err
		}
		if duplicate {
			return fmt.Errorf("%w: user already has an active reservation for this event", apperrors.ErrConflict)
		}

		user, err := tx.GetUser(ctx, actor.ID)
		if err != nil {
			return err
		}

		totalAmount := seat.Price

		// Code and expiry are derived before the insert; both are
		// non-null required columns.
		code, err := GenerateReservationCode(now)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
		}

		reservation = Reservation{
			ID:               uuid.New(),
			Code:             code,
			UserID:           actor.ID,
			EventID:          eventID,
			SeatID:           seatID,
			PaymentMethod:    paymentMethod,
			PaymentReference: paymentReference,
			TotalAmount:      totalAmount,
		}

		if totalAmount == 0 {
			reservation.Status = StatusConfirmed
			reservation.PaymentStatus = PaymentPaid
			reservation.ExpiresAt = now.Add(s.booking.FreeReservationTTL)
		} else {
			reservation.Status = StatusPending
			reservation.PaymentStatus = PaymentPending
			reservation.ExpiresAt = now.Add(s.booking.PaidReservationTTL)
		}

		qrPayload := QRPayload{
			ReservationID:   reservation.ID.String(),
			ReservationCode: reservation.Code,
			EventID:         eventID.String(),
			EventTitle:      event.Title,
			SeatInfo:        seat.Label(),
			UserName:        user.FullName(),
		}
		qrCode, err := s.qr.Encode(qrPayload)
		if err != nil {
			return fmt.Errorf("%w: qr encoding failed: %v", apperrors.ErrInternal, err)
		}
		reservation.QRCode = qrCode

		if err := tx.CreateReservation(ctx, &reservation); err != nil {
			return fmt.Errorf("%w: failed to create reservation: %v", apperrors.ErrInternal, err)
		}

		// Free seats are finalized immediately; paid seats stay RESERVED
		// but the hold TTL no longer applies, the pending reservation
		// owns the seat now.
		if totalAmount == 0 {
			err = tx.UpdateSeat(ctx, seatID, map[string]interface{}{
				"status":      seats.StatusSold,
				"is_reserved": true,
				"hold_expiry": nil,
			})
		} else {
			err = tx.UpdateSeat(ctx, seatID, map[string]interface{}{
				"status":      seats.StatusReserved,
				"is_reserved": true,
				"hold_expiry": nil,
			})
		}
		if err != nil {
			return fmt.Errorf("%w: failed to update seat: %v", apperrors.ErrInternal, err)
		}

		if totalAmount == 0 {
			txnID, err := GenerateTransactionID(now)
			if err != nil {
				return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
			}
			payment := &Payment{
				ID:            uuid.New(),
				ReservationID: reservation.ID,
				Amount:        0,
				Method:        paymentMethod,
				Status:        PaymentRowCompleted,
				TransactionID: txnID,
			}
			if err := tx.CreatePayment(ctx, payment); err != nil {
				return fmt.Errorf("%w: failed to create payment: %v", apperrors.ErrInternal, err)
			}
		}

		emailJob = &TicketEmailJob{
			To:              user.Email,
			UserName:        user.FullName(),
			ReservationID:   reservation.ID.String(),
			ReservationCode: reservation.Code,
			EventTitle:      event.Title,
			EventDate:       event.DateTime.Format(time.RFC1123),
			SeatInfo:        seat.Label(),
			TotalAmount:     totalAmount,
			QRCode:          qrCode,
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back; an expired hold still occupies
		// the seat row, so reclaim it on this path too. The guarded
		// update is a no-op if a read-path sweep got there first.
		if errors.Is(err, apperrors.ErrHoldExpired) {
			if reclaimErr := s.repo.ReclaimSeat(ctx, seatID, s.now()); reclaimErr != nil {
				s.log.WithError(reclaimErr).Warn("post-rollback hold reclaim failed",
					"seat_id", seatID.String())
			}
		}
		return nil, err
	}

	s.log.LogReservationCreated(ctx, reservation.ID.String(), reservation.Code, seatID.String(), actor.ID.String())

	s.dispatchTicketEmail(ctx, reservation.ID, *emailJob)

	resp := toReservationResponse(&reservation)
	return &resp, nil
}

// ApproveReservation confirms a pending reservation and finalizes its
// seat. Admin or staff only.
func (s *service) ApproveReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: approval requires staff role", apperrors.ErrInvalid)
	}

	var updated *Reservation
	var emailJob *TicketEmailJob

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		reservation, err := tx.GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}

		// Same lock order as creation: reservation, then its seat.
		seat, err := tx.GetSeatForUpdate(ctx, reservation.SeatID)
		if err != nil {
			return err
		}

		if reservation.Status != StatusPending {
			return fmt.Errorf("%w: reservation is %s, only pending reservations can be approved", apperrors.ErrConflict, reservation.Status)
		}

		event, err := tx.GetEvent(ctx, reservation.EventID)
		if err != nil {
			return err
		}
		now := s.now()
		if !event.DateTime.After(now) {
			return fmt.Errorf("%w: event date has passed", apperrors.ErrInvalid)
		}

		updates := map[string]interface{}{"status": StatusConfirmed}
		if reservation.TotalAmount == 0 {
			updates["payment_status"] = PaymentPaid
		}
		if err := tx.UpdateReservation(ctx, reservationID, updates); err != nil {
			return err
		}

		if err := tx.UpdateSeat(ctx, seat.ID, map[string]interface{}{
			"status":      seats.StatusSold,
			"is_reserved": true,
			"hold_expiry": nil,
		}); err != nil {
			return err
		}

		reservation.Status = StatusConfirmed
		if reservation.TotalAmount == 0 {
			reservation.PaymentStatus = PaymentPaid
		}
		updated = reservation

		if !reservation.EmailSent {
			user, err := tx.GetUser(ctx, reservation.UserID)
			if err != nil {
				return err
			}
			emailJob = &TicketEmailJob{
				To:              user.Email,
				UserName:        user.FullName(),
				ReservationID:   reservation.ID.String(),
				ReservationCode: reservation.Code,
				EventTitle:      event.Title,
				EventDate:       event.DateTime.Format(time.RFC1123),
				SeatInfo:        seat.Label(),
				TotalAmount:     reservation.TotalAmount,
				QRCode:          reservation.QRCode,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogReservationTransition(ctx, reservationID.String(), string(StatusPending), string(StatusConfirmed), actor.ID.String())

	if emailJob != nil {
		s.dispatchTicketEmail(ctx, reservationID, *emailJob)
	}

	resp := toReservationResponse(updated)
	return &resp, nil
}

// RejectReservation cancels a pending reservation and releases its seat.
// A paid reservation is marked refunded and gets a refund payment row.
func (s *service) RejectReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: rejection requires staff role", apperrors.ErrInvalid)
	}

	var updated *Reservation

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		reservation, err := tx.GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}

		seat, err := tx.GetSeatForUpdate(ctx, reservation.SeatID)
		if err != nil {
			return err
		}

		if reservation.Status != StatusPending {
			return fmt.Errorf("%w: reservation is %s, only pending reservations can be rejected", apperrors.ErrConflict, reservation.Status)
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}

		wasPaid := reservation.PaymentStatus == PaymentPaid
		if wasPaid {
			updates["payment_status"] = PaymentRefunded

			txnID, err := GenerateTransactionID(now)
			if err != nil {
				return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
			}
			refund := &Payment{
				ID:            uuid.New(),
				ReservationID: reservation.ID,
				Amount:        -reservation.TotalAmount,
				Method:        reservation.PaymentMethod,
				Status:        PaymentRowRefunded,
				TransactionID: txnID,
			}
			if err := tx.CreatePayment(ctx, refund); err != nil {
				return err
			}
		}

		if err := tx.UpdateReservation(ctx, reservationID, updates); err != nil {
			return err
		}

		if err := tx.UpdateSeat(ctx, seat.ID, map[string]interface{}{
			"status":      seats.StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		}); err != nil {
			return err
		}

		reservation.Status = StatusCancelled
		reservation.CancelledAt = &now
		if wasPaid {
			reservation.PaymentStatus = PaymentRefunded
		}
		updated = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogReservationTransition(ctx, reservationID.String(), string(StatusPending), string(StatusCancelled), actor.ID.String())

	resp := toReservationResponse(updated)
	return &resp, nil
}

// CancelReservation is the user-facing cancellation. It closes 2 hours
// before the event starts.
func (s *service) CancelReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error) {
	var updated *Reservation
	var previous Status

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		reservation, err := tx.GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}

		seat, err := tx.GetSeatForUpdate(ctx, reservation.SeatID)
		if err != nil {
			return err
		}

		if reservation.UserID != actor.ID && !actor.IsStaff() {
			return fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, reservationID)
		}

		if reservation.Status == StatusCancelled || reservation.Status == StatusUsed {
			return fmt.Errorf("%w: reservation is already %s", apperrors.ErrConflict, reservation.Status)
		}

		event, err := tx.GetEvent(ctx, reservation.EventID)
		if err != nil {
			return err
		}
		now := s.now()
		if !now.Before(event.DateTime.Add(-s.booking.CancelCutoff)) {
			return fmt.Errorf("%w: cancellation window closed %s before the event", apperrors.ErrInvalid, s.booking.CancelCutoff)
		}

		previous = reservation.Status

		if err := tx.UpdateReservation(ctx, reservationID, map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return err
		}

		if err := tx.UpdateSeat(ctx, seat.ID, map[string]interface{}{
			"status":      seats.StatusAvailable,
			"is_reserved": false,
			"hold_expiry": nil,
		}); err != nil {
			return err
		}

		reservation.Status = StatusCancelled
		reservation.CancelledAt = &now
		updated = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogReservationTransition(ctx, reservationID.String(), string(previous), string(StatusCancelled), actor.ID.String())

	resp := toReservationResponse(updated)
	return &resp, nil
}

func (s *service) GetReservation(ctx context.Context, actor users.Actor, reservationID uuid.UUID) (*ReservationResponse, error) {
	reservation, err := s.repo.GetReservationByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	// Owners see their own reservations; everyone else gets NotFound
	// rather than leaking existence.
	if reservation.UserID != actor.ID && !actor.IsStaff() {
		return nil, fmt.Errorf("%w: reservation %s", apperrors.ErrNotFound, reservationID)
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *service) ListMyReservations(ctx context.Context, actor users.Actor) ([]ReservationResponse, error) {
	reservations, err := s.repo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = toReservationResponse(&reservations[i])
	}
	return responses, nil
}

func (s *service) ListEventReservations(ctx context.Context, actor users.Actor, eventID uuid.UUID) ([]ReservationResponse, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: listing event reservations requires staff role", apperrors.ErrInvalid)
	}

	reservations, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = toReservationResponse(&reservations[i])
	}
	return responses, nil
}

// dispatchTicketEmail hands the job to the notifier. The reservation is
// already durable; a dispatch failure is logged and email_sent stays
// false so a later approve can retry.
func (s *service) dispatchTicketEmail(ctx context.Context, reservationID uuid.UUID, job TicketEmailJob) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.SendTicketEmail(ctx, job); err != nil {
		s.log.LogEmailDispatchFailed(ctx, reservationID.String(), err)
		return
	}

	if err := s.repo.MarkEmailSent(ctx, reservationID); err != nil {
		s.log.WithError(err).Warn("failed to mark email as sent",
			"reservation_id", reservationID.String())
	}
}
