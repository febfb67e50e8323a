package booking

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// fakeSeats is an in-memory SeatClaimer mirroring the repository's
// claim semantics: BookTx only checks the booked flag, BookVersionTx
// performs the version compare-and-swap.
type fakeSeats struct {
	seats map[uint64]*model.Seat

	// forcedErr, when set, is returned by every claim mutation.
	forcedErr error

	bookCalls        int
	bookVersionCalls int
	lockCalls        int
}

func newFakeSeats(seats ...*model.Seat) *fakeSeats {
	f := &fakeSeats{seats: make(map[uint64]*model.Seat, len(seats))}
	for _, s := range seats {
		cp := *s
		f.seats[s.ID] = &cp
	}
	return f
}

func (f *fakeSeats) get(id uint64) (*model.Seat, error) {
	s, ok := f.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSeats) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Seat, error) {
	return f.get(id)
}

func (f *fakeSeats) LockForUpdateTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Seat, error) {
	f.lockCalls++
	return f.get(id)
}

func (f *fakeSeats) BookTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Seat, error) {
	f.bookCalls++
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	s, ok := f.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	if s.IsBooked {
		return nil, repository.ErrAlreadyBooked
	}
	s.IsBooked = true
	s.Version++
	return f.get(id)
}

func (f *fakeSeats) BookVersionTx(_ context.Context, _ *sql.Tx, id, expectedVersion uint64) (*model.Seat, error) {
	f.bookVersionCalls++
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	s, ok := f.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	if s.IsBooked || s.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	s.IsBooked = true
	s.Version++
	return f.get(id)
}

func TestStrategyForSelectsByMode(t *testing.T) {
	cases := []struct {
		mode string
		name string
	}{
		{mode: "", name: ModePessimistic}, // empty falls back to the lock-based default
		{mode: ModePessimistic, name: ModePessimistic},
		{mode: ModeOptimistic, name: ModeOptimistic},
	}
	for _, tc := range cases {
		strat, err := StrategyFor(tc.mode)
		require.NoError(t, err, "mode %q", tc.mode)
		assert.Equal(t, tc.name, strat.Name())
	}

	_, err := StrategyFor("hopeful")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestPessimisticClaimBooksFreeSeat(t *testing.T) {
	seats := newFakeSeats(&model.Seat{ID: 7, EventID: 1, Label: "A7"})
	strat, _ := StrategyFor(ModePessimistic)

	seat, err := strat.Claim(context.Background(), nil, seats, 7)
	require.NoError(t, err)
	assert.True(t, seat.IsBooked)
	assert.Equal(t, uint64(1), seat.Version)
	assert.Equal(t, 1, seats.lockCalls, "the claim must go through the exclusive lock")
}

func TestPessimisticClaimRejectsBookedSeat(t *testing.T) {
	seats := newFakeSeats(&model.Seat{ID: 7, Label: "A7", IsBooked: true, Version: 1})
	strat, _ := StrategyFor(ModePessimistic)

	_, err := strat.Claim(context.Background(), nil, seats, 7)
	assert.ErrorIs(t, err, repository.ErrAlreadyBooked)
	assert.Zero(t, seats.bookCalls, "a booked seat must be rejected before any update")
}

func TestPessimisticClaimMissingSeat(t *testing.T) {
	strat, _ := StrategyFor(ModePessimistic)
	_, err := strat.Claim(context.Background(), nil, newFakeSeats(), 99)
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
}

func TestOptimisticClaimBooksFreeSeat(t *testing.T) {
	seats := newFakeSeats(&model.Seat{ID: 3, Label: "A3", Version: 4})
	strat, _ := StrategyFor(ModeOptimistic)

	seat, err := strat.Claim(context.Background(), nil, seats, 3)
	require.NoError(t, err)
	assert.True(t, seat.IsBooked)
	assert.Equal(t, uint64(5), seat.Version)
	assert.Zero(t, seats.lockCalls, "the optimistic path never takes the row lock")
}

func TestOptimisticClaimLosesOnStaleVersion(t *testing.T) {
	seats := newFakeSeats(&model.Seat{ID: 3, Label: "A3", Version: 4})
	strat, _ := StrategyFor(ModeOptimistic)

	// A competing claimant bumps the version between the read and the
	// compare-and-swap.
	seats.seats[3].Version = 5

	// Force the race by claiming with the stale snapshot directly.
	_, err := seats.BookVersionTx(context.Background(), nil, 3, 4)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)

	// The strategy itself still wins against the current version.
	seat, err := strat.Claim(context.Background(), nil, seats, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), seat.Version)
}

func TestOptimisticClaimRejectsBookedSeat(t *testing.T) {
	seats := newFakeSeats(&model.Seat{ID: 3, Label: "A3", IsBooked: true, Version: 1})
	strat, _ := StrategyFor(ModeOptimistic)

	_, err := strat.Claim(context.Background(), nil, seats, 3)
	assert.ErrorIs(t, err, repository.ErrAlreadyBooked)
	assert.Zero(t, seats.bookVersionCalls, "the early read must short-circuit the swap")
}
