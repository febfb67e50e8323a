// Package harness fires many concurrent booking attempts at one seat
// and verifies the at-most-one-winner invariant.  It is the
// acceptance tool for the concurrency engine, not a production code
// path: attempts run through the full workflow, and the verdict comes
// from an independent re-query of the datastore afterwards.
package harness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/payment"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// BookFunc runs one booking attempt.  The harness never serialises
// calls; each attempt runs on its own goroutine.
type BookFunc func(ctx context.Context, opts Options) error

// SeatVerifier re-reads the contended seat after the run.
// *repository.SeatRepo implements it.
type SeatVerifier interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
}

// BookingCounter counts booking rows for a seat.
// *repository.BookingRepo implements it.
type BookingCounter interface {
	CountBySeat(ctx context.Context, seatID uint64) (int, error)
}

// Options parameterise one contention run.
type Options struct {
	SeatID   uint64 `json:"seat_id"`
	EventID  uint64 `json:"event_id"`
	UserID   uint64 `json:"user_id"`
	Attempts int    `json:"attempts"`
	Mode     string `json:"mode"`
}

// Report summarises a contention run: per-outcome counts, wall-clock
// duration and the verdict of the independent verification query.
type Report struct {
	Attempts        int            `json:"attempts"`
	Successful      int            `json:"successful"`
	AlreadyBooked   int            `json:"already_booked"`
	VersionConflict int            `json:"version_conflict"`
	PaymentDeclined int            `json:"payment_declined"`
	Errors          map[string]int `json:"errors,omitempty"`
	DurationMs      int64          `json:"duration_ms"`

	SeatBooked  bool `json:"seat_is_booked"`
	BookingRows int  `json:"bookings_created"`
	Passed      bool `json:"passed"`
}

// Runner drives contention runs against the booking engine.
type Runner struct {
	book     BookFunc
	seats    SeatVerifier
	bookings BookingCounter
}

// NewRunner constructs a Runner.  All dependencies must be non-nil.
func NewRunner(book BookFunc, seats SeatVerifier, bookings BookingCounter) *Runner {
	if book == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewRunner")
	}
	return &Runner{book: book, seats: seats, bookings: bookings}
}

// Run dispatches opts.Attempts concurrent booking attempts at the
// same seat, joins them, tallies each outcome as a value (a panic in
// an attempt is a bug in the engine, not a reportable outcome), then
// re-queries the datastore to check the invariant: at most one
// booking row references the seat, and is_booked holds exactly when
// a booking exists.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	log := logrus.WithFields(logrus.Fields{
		"seat_id":  opts.SeatID,
		"attempts": opts.Attempts,
		"mode":     opts.Mode,
	})
	log.Info("contention run started")

	start := time.Now()
	results := make([]error, opts.Attempts)
	var wg sync.WaitGroup
	for i := 0; i < opts.Attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = r.book(ctx, opts)
		}(i)
	}
	wg.Wait()

	rep := &Report{
		Attempts:   opts.Attempts,
		Errors:     map[string]int{},
		DurationMs: time.Since(start).Milliseconds(),
	}
	for _, err := range results {
		switch {
		case err == nil:
			rep.Successful++
		case errors.Is(err, repository.ErrAlreadyBooked):
			rep.AlreadyBooked++
		case errors.Is(err, repository.ErrVersionConflict):
			rep.VersionConflict++
		case errors.Is(err, payment.ErrDeclined):
			rep.PaymentDeclined++
		default:
			rep.Errors[err.Error()]++
		}
	}

	// Independent verification, outside any attempt's transaction.
	seat, err := r.seats.GetByID(ctx, opts.SeatID)
	if err != nil {
		return nil, err
	}
	count, err := r.bookings.CountBySeat(ctx, opts.SeatID)
	if err != nil {
		return nil, err
	}
	rep.SeatBooked = seat.IsBooked
	rep.BookingRows = count
	rep.Passed = count <= 1 && seat.IsBooked == (count == 1)

	log.WithFields(logrus.Fields{
		"successful":   rep.Successful,
		"rejected":     rep.AlreadyBooked + rep.VersionConflict,
		"booking_rows": rep.BookingRows,
		"duration_ms":  rep.DurationMs,
		"passed":       rep.Passed,
	}).Info("contention run finished")
	return rep, nil
}
