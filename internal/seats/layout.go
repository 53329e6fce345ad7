package seats

import (
	"context"
	"fmt"

	"seatwise/pkg/apperrors"

	"github.com/google/uuid"
)

const (
	seatsPerRow = 10
	vipRows     = 2

	sectionVIP  = "VIP"
	sectionMain = "MAIN"
)

// GenerateSeats builds the deterministic seat grid for an event:
// 10 seats per row, rows lettered A, B, C, ... with the first two rows
// forming the VIP section at vipPrice and the rest the MAIN section at
// basePrice. Aisle seats (1 and 10) of the last row are flagged
// accessible. Idempotency is destroy-then-recreate: any existing seats
// for the event are deleted first, so a re-run yields exactly maxSeats
// seats. Regeneration is refused once any seat has been sold.
func (s *service) GenerateSeats(ctx context.Context, eventID uuid.UUID, maxSeats int, basePrice, vipPrice float64) (int, error) {
	if maxSeats < 1 {
		return 0, fmt.Errorf("%w: maxSeats must be positive", apperrors.ErrInvalid)
	}

	var created int
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return err
		}

		sold, err := tx.CountSoldSeats(ctx, eventID)
		if err != nil {
			return err
		}
		if sold > 0 {
			return fmt.Errorf("%w: event has %d sold seats, layout is frozen", apperrors.ErrConflict, sold)
		}

		if err := tx.DeleteSeatsByEventID(ctx, eventID); err != nil {
			return fmt.Errorf("failed to clear existing seats: %w", err)
		}

		grid := buildLayout(eventID, maxSeats, basePrice, vipPrice)
		if err := tx.CreateSeats(ctx, grid); err != nil {
			return fmt.Errorf("failed to create seats: %w", err)
		}

		created = len(grid)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// buildLayout emits the seat rows. Row letters run A..Z then AA, AB, ...
// so the layout stays deterministic for any capacity.
func buildLayout(eventID uuid.UUID, maxSeats int, basePrice, vipPrice float64) []Seat {
	seats := make([]Seat, 0, maxSeats)
	totalRows := (maxSeats + seatsPerRow - 1) / seatsPerRow
	lastRow := totalRows - 1

	for rowIdx := 0; rowIdx < totalRows; rowIdx++ {
		section := sectionMain
		price := basePrice
		isVIP := false
		if rowIdx < vipRows {
			section = sectionVIP
			price = vipPrice
			isVIP = true
		}

		rowLetter := rowLabel(rowIdx)
		for num := 1; num <= seatsPerRow && len(seats) < maxSeats; num++ {
			accessible := rowIdx == lastRow && (num == 1 || num == seatsPerRow)
			seats = append(seats, Seat{
				EventID:      eventID,
				Section:      section,
				Row:          rowLetter,
				SeatNumber:   num,
				IsVIP:        isVIP,
				IsAccessible: accessible,
				Price:        price,
				Status:       StatusAvailable,
			})
		}
	}
	return seats
}

func rowLabel(idx int) string {
	label := ""
	idx++
	for idx > 0 {
		idx--
		label = string(rune('A'+idx%26)) + label
		idx /= 26
	}
	return label
}
