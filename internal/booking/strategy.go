package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// Locking mode selectors accepted from callers.
const (
	ModePessimistic = "pessimistic"
	ModeOptimistic  = "optimistic"
)

// ErrInvalidMode is returned when a caller supplies an unknown
// locking mode selector.
var ErrInvalidMode = errors.New("invalid locking mode")

// SeatClaimer is the seat mutation port the strategies operate
// through.  *repository.SeatRepo implements it; tests substitute an
// in-memory fake.  Its claim methods are the only place a seat row is
// ever mutated.
type SeatClaimer interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error)
	LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error)
	BookTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error)
	BookVersionTx(ctx context.Context, tx *sql.Tx, id, expectedVersion uint64) (*model.Seat, error)
}

// Strategy attempts to transition one seat to booked inside an open
// transaction.  New modes (e.g. advisory-lock based) plug in here
// without touching the workflow state machine.
type Strategy interface {
	// Name returns the mode selector this strategy answers to.
	Name() string
	// Claim books the seat or fails with ErrAlreadyBooked /
	// ErrVersionConflict from the repository layer.
	Claim(ctx context.Context, tx *sql.Tx, seats SeatClaimer, seatID uint64) (*model.Seat, error)
}

// StrategyFor maps a mode selector to a Strategy.  An empty mode
// selects the pessimistic default.
func StrategyFor(mode string) (Strategy, error) {
	switch mode {
	case "", ModePessimistic:
		return pessimistic{}, nil
	case ModeOptimistic:
		return optimistic{}, nil
	default:
		return nil, ErrInvalidMode
	}
}

// pessimistic claims a seat under an exclusive row lock.  Competing
// claimants block on the lock until the holder's transaction ends;
// the lock alone guarantees a single winner, so the update after the
// booked check is unconditional.
type pessimistic struct{}

func (pessimistic) Name() string { return ModePessimistic }

func (pessimistic) Claim(ctx context.Context, tx *sql.Tx, seats SeatClaimer, seatID uint64) (*model.Seat, error) {
	seat, err := seats.LockForUpdateTx(ctx, tx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.IsBooked {
		return nil, repository.ErrAlreadyBooked
	}
	return seats.BookTx(ctx, tx, seatID)
}

// optimistic claims a seat with a version-checked compare-and-swap.
// The initial read is an early exit only; both racers may see the
// seat available, and the CAS inside BookVersionTx is what decides
// the winner.  Losers get ErrVersionConflict without ever blocking.
type optimistic struct{}

func (optimistic) Name() string { return ModeOptimistic }

func (optimistic) Claim(ctx context.Context, tx *sql.Tx, seats SeatClaimer, seatID uint64) (*model.Seat, error) {
	seat, err := seats.GetByIDTx(ctx, tx, seatID)
	if err != nil {
		return nil, err
	}
	if seat.IsBooked {
		return nil, repository.ErrAlreadyBooked
	}
	return seats.BookVersionTx(ctx, tx, seatID, seat.Version)
}
