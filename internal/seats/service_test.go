package seats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"seatwise/internal/users"
	"seatwise/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeState holds the in-memory tables. Its methods never lock; callers
// hold fakeRepo.mu, so everything inside a transaction runs serialized,
// which is exactly what the row lock gives us in Postgres.
type fakeState struct {
	seats  map[uuid.UUID]*Seat
	events map[uuid.UUID]*Event
}

func (s *fakeState) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(s)
}

func (s *fakeState) GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	return s.GetSeatByID(ctx, seatID)
}

func (s *fakeState) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	seat, ok := s.seats[seatID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *seat
	if seat.HoldExpiry != nil {
		t := *seat.HoldExpiry
		cp.HoldExpiry = &t
	}
	return &cp, nil
}

func (s *fakeState) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	var out []Seat
	for _, seat := range s.seats {
		if seat.EventID == eventID {
			out = append(out, *seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (s *fakeState) UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error {
	seat, ok := s.seats[seatID]
	if !ok {
		return apperrors.ErrNotFound
	}
	applySeatUpdates(seat, updates)
	return nil
}

func (s *fakeState) ReclaimExpired(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	for _, seat := range s.seats {
		if seat.EventID == eventID && seat.Status == StatusReserved &&
			seat.HoldExpiry != nil && seat.HoldExpiry.Before(now) {
			seat.Status = StatusAvailable
			seat.IsReserved = false
			seat.HoldExpiry = nil
			n++
		}
	}
	return n, nil
}

func (s *fakeState) ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error {
	seat, ok := s.seats[seatID]
	if !ok {
		return nil
	}
	if seat.Status == StatusReserved && seat.HoldExpiry != nil && seat.HoldExpiry.Before(now) {
		seat.Status = StatusAvailable
		seat.IsReserved = false
		seat.HoldExpiry = nil
	}
	return nil
}

func (s *fakeState) CreateSeats(ctx context.Context, rows []Seat) error {
	for i := range rows {
		seat := rows[i]
		if seat.ID == uuid.Nil {
			seat.ID = uuid.New()
		}
		s.seats[seat.ID] = &seat
	}
	return nil
}

func (s *fakeState) DeleteSeatsByEventID(ctx context.Context, eventID uuid.UUID) error {
	for id, seat := range s.seats {
		if seat.EventID == eventID {
			delete(s.seats, id)
		}
	}
	return nil
}

func (s *fakeState) CountSoldSeats(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var n int64
	for _, seat := range s.seats {
		if seat.EventID == eventID && seat.Status == StatusSold {
			n++
		}
	}
	return n, nil
}

func (s *fakeState) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	event, ok := s.events[eventID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *event
	return &cp, nil
}

func applySeatUpdates(seat *Seat, updates map[string]interface{}) {
	if v, ok := updates["status"]; ok {
		seat.Status = v.(Status)
	}
	if v, ok := updates["is_reserved"]; ok {
		seat.IsReserved = v.(bool)
	}
	if v, ok := updates["hold_expiry"]; ok {
		switch t := v.(type) {
		case nil:
			seat.HoldExpiry = nil
		case time.Time:
			tt := t
			seat.HoldExpiry = &tt
		case *time.Time:
			seat.HoldExpiry = t
		}
	}
}

// fakeRepo serializes transactions with one mutex and rolls the seat
// table back when the transaction function returns an error.
type fakeRepo struct {
	mu    sync.Mutex
	state *fakeState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: &fakeState{
		seats:  make(map[uuid.UUID]*Seat),
		events: make(map[uuid.UUID]*Event),
	}}
}

func (r *fakeRepo) snapshotSeats() map[uuid.UUID]*Seat {
	snap := make(map[uuid.UUID]*Seat, len(r.state.seats))
	for id, seat := range r.state.seats {
		cp := *seat
		if seat.HoldExpiry != nil {
			t := *seat.HoldExpiry
			cp.HoldExpiry = &t
		}
		snap[id] = &cp
	}
	return snap
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snapshotSeats()
	if err := fn(r.state); err != nil {
		r.state.seats = snap
		return err
	}
	return nil
}

func (r *fakeRepo) GetSeatForUpdate(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.GetSeatForUpdate(ctx, seatID)
}

func (r *fakeRepo) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.GetSeatByID(ctx, seatID)
}

func (r *fakeRepo) GetSeatsByEventID(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.GetSeatsByEventID(ctx, eventID)
}

func (r *fakeRepo) UpdateSeat(ctx context.Context, seatID uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.UpdateSeat(ctx, seatID, updates)
}

func (r *fakeRepo) ReclaimExpired(ctx context.Context, eventID uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.ReclaimExpired(ctx, eventID, now)
}

func (r *fakeRepo) ReclaimSeat(ctx context.Context, seatID uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.ReclaimSeat(ctx, seatID, now)
}

func (r *fakeRepo) CreateSeats(ctx context.Context, rows []Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CreateSeats(ctx, rows)
}

func (r *fakeRepo) DeleteSeatsByEventID(ctx context.Context, eventID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.DeleteSeatsByEventID(ctx, eventID)
}

func (r *fakeRepo) CountSoldSeats(ctx context.Context, eventID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CountSoldSeats(ctx, eventID)
}

func (r *fakeRepo) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.GetEvent(ctx, eventID)
}

func (r *fakeRepo) addEvent(event *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.events[event.ID] = event
}

func (r *fakeRepo) addSeat(seat *Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.seats[seat.ID] = seat
}

func (r *fakeRepo) seat(t *testing.T, seatID uuid.UUID) *Seat {
	t.Helper()
	seat, err := r.GetSeatByID(context.Background(), seatID)
	require.NoError(t, err)
	return seat
}

func publishedEvent(dateTime time.Time) *Event {
	return &Event{
		ID:       uuid.New(),
		Title:    "Symphony Under the Stars",
		DateTime: dateTime,
		Status:   "published",
		MaxSeats: 120,
	}
}

func availableSeat(eventID uuid.UUID) *Seat {
	return &Seat{
		ID:         uuid.New(),
		EventID:    eventID,
		Section:    sectionMain,
		Row:        "C",
		SeatNumber: 4,
		Price:      45,
		Status:     StatusAvailable,
	}
}

func newTestService(repo Repository, now time.Time) *service {
	svc := NewService(repo, 10*time.Minute).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func TestHoldSeatConcurrent(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(30 * 24 * time.Hour))
	repo.addEvent(event)
	seat := availableSeat(event.ID)
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	actor := users.Actor{ID: uuid.New(), Role: users.RoleUser}

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	conflictCount := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.HoldSeat(context.Background(), actor, seat.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successCount++
			} else if errors.Is(err, apperrors.ErrConflict) {
				conflictCount++
			}
		}()
	}
	wg.Wait()

	t.Logf("%d users competing for one seat. Success: %d, Conflict: %d", attempts, successCount, conflictCount)
	assert.Equal(t, 1, successCount, "exactly one hold must win")
	assert.Equal(t, attempts-1, conflictCount, "every loser must see a conflict")

	got := repo.seat(t, seat.ID)
	assert.Equal(t, StatusReserved, got.Status)
	assert.True(t, got.IsReserved)
	require.NotNil(t, got.HoldExpiry)
	assert.Equal(t, now.Add(10*time.Minute), *got.HoldExpiry)
}

func TestHoldSeatExpiredHoldReclaimedInPlace(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(7 * 24 * time.Hour))
	repo.addEvent(event)

	staleExpiry := now.Add(-time.Minute)
	seat := availableSeat(event.ID)
	seat.Status = StatusReserved
	seat.IsReserved = true
	seat.HoldExpiry = &staleExpiry
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	resp, err := svc.HoldSeat(context.Background(), users.Actor{ID: uuid.New(), Role: users.RoleUser}, seat.ID)
	require.NoError(t, err, "an expired hold must not block a fresh holder")
	assert.Equal(t, now.Add(10*time.Minute), resp.HoldExpiry)

	got := repo.seat(t, seat.ID)
	assert.Equal(t, StatusReserved, got.Status)
	require.NotNil(t, got.HoldExpiry)
	assert.Equal(t, now.Add(10*time.Minute), *got.HoldExpiry)
}

func TestHoldSeatRejectsUnbookableEvent(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name     string
		status   string
		dateTime time.Time
	}{
		{"draft event", "draft", now.Add(24 * time.Hour)},
		{"cancelled event", "cancelled", now.Add(24 * time.Hour)},
		{"past event", "published", now.Add(-time.Hour)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			event := publishedEvent(tc.dateTime)
			event.Status = tc.status
			repo.addEvent(event)
			seat := availableSeat(event.ID)
			repo.addSeat(seat)

			svc := newTestService(repo, now)
			_, err := svc.HoldSeat(context.Background(), users.Actor{ID: uuid.New(), Role: users.RoleUser}, seat.ID)
			assert.ErrorIs(t, err, apperrors.ErrInvalid)

			got := repo.seat(t, seat.ID)
			assert.Equal(t, StatusAvailable, got.Status, "failed hold must leave the seat untouched")
		})
	}
}

func TestHoldSeatSoldSeatConflicts(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)
	seat := availableSeat(event.ID)
	seat.Status = StatusSold
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	_, err := svc.HoldSeat(context.Background(), users.Actor{ID: uuid.New(), Role: users.RoleUser}, seat.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReleaseSeat(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	liveExpiry := now.Add(5 * time.Minute)
	seat := availableSeat(event.ID)
	seat.Status = StatusReserved
	seat.IsReserved = true
	seat.HoldExpiry = &liveExpiry
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	require.NoError(t, svc.ReleaseSeat(context.Background(), seat.ID))

	got := repo.seat(t, seat.ID)
	assert.Equal(t, StatusAvailable, got.Status)
	assert.False(t, got.IsReserved)
	assert.Nil(t, got.HoldExpiry)
}

func TestReleaseSeatRefusesExpiredHold(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	staleExpiry := now.Add(-time.Second)
	seat := availableSeat(event.ID)
	seat.Status = StatusReserved
	seat.IsReserved = true
	seat.HoldExpiry = &staleExpiry
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	err := svc.ReleaseSeat(context.Background(), seat.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "an expired hold belongs to the reclaimer, not the release path")

	// The sweep still converges the seat afterwards.
	_, err = svc.ListSeats(context.Background(), event.ID)
	require.NoError(t, err)
	got := repo.seat(t, seat.ID)
	assert.Equal(t, StatusAvailable, got.Status)
	assert.Nil(t, got.HoldExpiry)
}

func TestReleaseSeatNotHeld(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)
	seat := availableSeat(event.ID)
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	err := svc.ReleaseSeat(context.Background(), seat.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestListSeatsSweepsExpiredHolds(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	staleExpiry := now.Add(-time.Minute)
	liveExpiry := now.Add(5 * time.Minute)

	expired := availableSeat(event.ID)
	expired.SeatNumber = 1
	expired.Status = StatusReserved
	expired.IsReserved = true
	expired.HoldExpiry = &staleExpiry
	repo.addSeat(expired)

	live := availableSeat(event.ID)
	live.SeatNumber = 2
	live.Status = StatusReserved
	live.IsReserved = true
	live.HoldExpiry = &liveExpiry
	repo.addSeat(live)

	open := availableSeat(event.ID)
	open.SeatNumber = 3
	repo.addSeat(open)

	svc := newTestService(repo, now)
	resp, err := svc.ListSeats(context.Background(), event.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Available, "the expired hold must be reclaimed before the snapshot")

	got := repo.seat(t, expired.ID)
	assert.Equal(t, StatusAvailable, got.Status)
	assert.Nil(t, got.HoldExpiry)

	stillHeld := repo.seat(t, live.ID)
	assert.Equal(t, StatusReserved, stillHeld.Status, "a live hold must survive the sweep")
}

func TestGetSeatReclaimsExpiredHold(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	staleExpiry := now.Add(-time.Minute)
	seat := availableSeat(event.ID)
	seat.Status = StatusReserved
	seat.IsReserved = true
	seat.HoldExpiry = &staleExpiry
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	resp, err := svc.GetSeat(context.Background(), seat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, resp.Status, "single-seat reads must never show a stale hold")
	assert.Nil(t, resp.HoldExpiry)
}

func TestConcurrentSweepAndHoldConverge(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	event := publishedEvent(now.Add(24 * time.Hour))
	repo.addEvent(event)

	staleExpiry := now.Add(-time.Minute)
	seat := availableSeat(event.ID)
	seat.Status = StatusReserved
	seat.IsReserved = true
	seat.HoldExpiry = &staleExpiry
	repo.addSeat(seat)

	svc := newTestService(repo, now)
	actor := users.Actor{ID: uuid.New(), Role: users.RoleUser}

	// Sweeps and hold attempts race over the same expired seat. The
	// guarded reclaim makes double-clears a no-op, so the run must end
	// with exactly one live hold and no error other than conflicts.
	var wg sync.WaitGroup
	var mu sync.Mutex
	holds := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ListSeats(context.Background(), event.ID)
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.HoldSeat(context.Background(), actor, seat.ID); err == nil {
				mu.Lock()
				holds++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperrors.ErrConflict)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, holds, "the racing reclaim paths must hand the seat to exactly one holder")
	got := repo.seat(t, seat.ID)
	assert.Equal(t, StatusReserved, got.Status)
	require.NotNil(t, got.HoldExpiry)
	assert.True(t, got.HoldExpiry.After(now), "the surviving hold must be the fresh one")
}
