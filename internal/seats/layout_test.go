package seats

import (
	"context"
	"testing"
	"time"

	"seatwise/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLayout(t *testing.T) {
	eventID := uuid.New()
	grid := buildLayout(eventID, 35, 45.0, 120.0)

	require.Len(t, grid, 35, "the grid must contain exactly maxSeats seats")

	vipCount := 0
	accessible := make([]string, 0, 2)
	for _, seat := range grid {
		assert.Equal(t, eventID, seat.EventID)
		assert.Equal(t, StatusAvailable, seat.Status)
		if seat.IsVIP {
			vipCount++
			assert.Equal(t, sectionVIP, seat.Section)
			assert.Equal(t, 120.0, seat.Price)
		} else {
			assert.Equal(t, sectionMain, seat.Section)
			assert.Equal(t, 45.0, seat.Price)
		}
		if seat.IsAccessible {
			accessible = append(accessible, seat.Label())
		}
	}

	// Rows A and B are VIP, 10 seats each.
	assert.Equal(t, 20, vipCount)

	// 35 seats means the last row D holds seats 1-5, so only the first
	// aisle seat exists to be flagged accessible.
	assert.Equal(t, []string{"MAIN D-1"}, accessible)
}

func TestBuildLayoutFullLastRow(t *testing.T) {
	grid := buildLayout(uuid.New(), 40, 45.0, 120.0)
	require.Len(t, grid, 40)

	var accessible []string
	for _, seat := range grid {
		if seat.IsAccessible {
			accessible = append(accessible, seat.Label())
		}
	}
	assert.Equal(t, []string{"MAIN D-1", "MAIN D-10"}, accessible,
		"both aisle seats of the last row must be accessible")
}

func TestBuildLayoutDeterministic(t *testing.T) {
	eventID := uuid.New()
	first := buildLayout(eventID, 73, 30.0, 90.0)
	second := buildLayout(eventID, 73, 30.0, 90.0)
	assert.Equal(t, first, second, "same inputs must yield the same grid")
}

func TestBuildLayoutSingleSeat(t *testing.T) {
	grid := buildLayout(uuid.New(), 1, 45.0, 120.0)
	require.Len(t, grid, 1)
	assert.Equal(t, sectionVIP, grid[0].Section)
	assert.Equal(t, "A", grid[0].Row)
	assert.Equal(t, 1, grid[0].SeatNumber)
	assert.True(t, grid[0].IsAccessible, "row A is also the last row here")
}

func TestRowLabel(t *testing.T) {
	assert.Equal(t, "A", rowLabel(0))
	assert.Equal(t, "B", rowLabel(1))
	assert.Equal(t, "Z", rowLabel(25))
	assert.Equal(t, "AA", rowLabel(26))
	assert.Equal(t, "AB", rowLabel(27))
	assert.Equal(t, "AZ", rowLabel(51))
	assert.Equal(t, "BA", rowLabel(52))
}

func TestGenerateSeatsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	event.Status = "draft"
	repo.addEvent(event)

	svc := newTestService(repo, now)

	created, err := svc.GenerateSeats(context.Background(), event.ID, 40, 45.0, 120.0)
	require.NoError(t, err)
	assert.Equal(t, 40, created)

	// A second run rebuilds the grid instead of stacking a duplicate one.
	created, err = svc.GenerateSeats(context.Background(), event.ID, 40, 45.0, 120.0)
	require.NoError(t, err)
	assert.Equal(t, 40, created)

	rows, err := repo.GetSeatsByEventID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 40)
}

func TestGenerateSeatsFrozenAfterSale(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	svc := newTestService(repo, now)
	_, err := svc.GenerateSeats(context.Background(), event.ID, 30, 45.0, 120.0)
	require.NoError(t, err)

	rows, err := repo.GetSeatsByEventID(context.Background(), event.ID)
	require.NoError(t, err)
	repo.addSeat(&Seat{
		ID:         rows[0].ID,
		EventID:    event.ID,
		Section:    rows[0].Section,
		Row:        rows[0].Row,
		SeatNumber: rows[0].SeatNumber,
		Price:      rows[0].Price,
		Status:     StatusSold,
	})

	_, err = svc.GenerateSeats(context.Background(), event.ID, 30, 45.0, 120.0)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "a sold seat freezes the layout")

	rows, err = repo.GetSeatsByEventID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 30, "the failed regeneration must roll back")
}

func TestGenerateSeatsRejectsNonPositiveCapacity(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	_, err := svc.GenerateSeats(context.Background(), uuid.New(), 0, 45.0, 120.0)
	assert.ErrorIs(t, err, apperrors.ErrInvalid)
}

func TestGenerateSeatsUnknownEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	_, err := svc.GenerateSeats(context.Background(), uuid.New(), 10, 45.0, 120.0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
