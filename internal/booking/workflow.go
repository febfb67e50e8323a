// Package booking implements the seat-reservation concurrency
// engine: the locking strategies, the retry controller and the
// workflow state machine that ties seat claims, booking records and
// the payment signal into one atomic serializable transaction.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticket-booking/internal/database"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/payment"
)

// ErrNoSeats is returned when a booking request names no usable
// seats.  Validation failures never open a transaction.
var ErrNoSeats = errors.New("no seats requested")

// TxRunner runs fn inside a serializable transaction.  Production
// wiring closes over database.RunSerializable; tests substitute a
// runner that hands fn a nil tx.
type TxRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

// EventReader supplies event validation and pricing before any
// transaction is opened.
type EventReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// BookingWriter is the booking persistence port of the workflow.
// *repository.BookingRepo implements it.
type BookingWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	UpdateStatusByReferenceTx(ctx context.Context, tx *sql.Tx, reference, status string) error
}

// PaymentWriter is the payment persistence port of the workflow.
// *repository.PaymentRepo implements it.
type PaymentWriter interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status, providerRef string) error
}

// Request describes one booking attempt: which user claims which
// seats of which event, and under which locking mode.
type Request struct {
	UserID  uint64   `json:"user_id"`
	EventID uint64   `json:"event_id"`
	SeatIDs []uint64 `json:"seat_ids"`
	Mode    string   `json:"mode"`
}

// Confirmation is the durable outcome of a successful booking
// workflow, returned to the caller after commit.
type Confirmation struct {
	Reference        string   `json:"booking_reference"`
	BookingIDs       []uint64 `json:"booking_ids"`
	SeatIDs          []uint64 `json:"seat_ids"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	PaymentID        uint64   `json:"payment_id"`
	ProviderRef      string   `json:"provider_ref"`
	Status           string   `json:"status"`
}

// Engine coordinates the booking workflow.  One Engine serves all
// requests; every invocation runs independently against the shared
// connection pool.
type Engine struct {
	run      TxRunner
	events   EventReader
	seats    SeatClaimer
	bookings BookingWriter
	payments PaymentWriter
	gateway  payment.Gateway
	policy   Policy
}

// NewEngine wires the workflow's ports together.  All dependencies
// must be non-nil.
func NewEngine(run TxRunner, events EventReader, seats SeatClaimer, bookings BookingWriter, payments PaymentWriter, gateway payment.Gateway, policy Policy) *Engine {
	if run == nil || events == nil || seats == nil || bookings == nil || payments == nil || gateway == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{
		run:      run,
		events:   events,
		seats:    seats,
		bookings: bookings,
		payments: payments,
		gateway:  gateway,
		policy:   policy,
	}
}

// Runner adapts a *sql.DB into the TxRunner the Engine expects.
func Runner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *sql.Tx) error) error {
		return database.RunSerializable(ctx, db, fn)
	}
}

// Book runs the full workflow state machine for one request:
//
//	Start -> SeatsClaiming -> BookingRecorded -> PaymentPending -> Confirmed|Failed
//
// Everything between SeatsClaiming and the terminal state happens
// inside a single serializable transaction, so the request either
// fully succeeds or leaves zero persisted state.  Transient conflicts
// (deadlock, serialization failure, reference collision) retry the
// whole unit under the engine's policy; business rejections propagate
// immediately.
func (e *Engine) Book(ctx context.Context, req Request) (*Confirmation, error) {
	strat, err := StrategyFor(req.Mode)
	if err != nil {
		return nil, err
	}
	seatIDs := dedupe(req.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	// Validate and price before opening any transaction.
	ev, err := e.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	total := ev.PriceCents * uint32(len(seatIDs))

	log := logrus.WithFields(logrus.Fields{
		"user_id":  req.UserID,
		"event_id": req.EventID,
		"seats":    seatIDs,
		"mode":     strat.Name(),
	})
	log.Info("booking attempt")
	start := time.Now()

	var conf *Confirmation
	err = Retry(ctx, e.policy, transient, func() error {
		return e.run(ctx, func(tx *sql.Tx) error {
			c, err := e.attempt(ctx, tx, strat, seatIDs, req, total)
			if err != nil {
				return err
			}
			conf = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"reference": conf.Reference,
		"duration":  time.Since(start),
	}).Info("booking confirmed")
	return conf, nil
}

// attempt executes one pass of the state machine inside an open
// transaction.  Any returned error rolls the whole transaction back.
func (e *Engine) attempt(ctx context.Context, tx *sql.Tx, strat Strategy, seatIDs []uint64, req Request, total uint32) (*Confirmation, error) {
	// A fresh reference per attempt; a collision surfaces as a
	// duplicate-key error on insert and classifies as retryable.
	ref, err := NewReference()
	if err != nil {
		return nil, err
	}

	// SeatsClaiming: any single seat failing aborts the whole group,
	// releasing every claim made so far via the rollback.
	claimed := make([]*model.Seat, 0, len(seatIDs))
	for _, sid := range seatIDs {
		seat, err := strat.Claim(ctx, tx, e.seats, sid)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, seat)
	}

	// BookingRecorded: one pending row per seat, one shared reference.
	conf := &Confirmation{
		Reference:        ref,
		BookingIDs:       make([]uint64, 0, len(claimed)),
		SeatIDs:          make([]uint64, 0, len(claimed)),
		SeatLabels:       make([]string, 0, len(claimed)),
		TotalAmountCents: total,
	}
	var firstBookingID uint64
	for i, seat := range claimed {
		b := &model.Booking{
			UserID:           req.UserID,
			EventID:          req.EventID,
			SeatID:           seat.ID,
			Status:           model.BookingPending,
			BookingReference: ref,
			TotalAmountCents: total,
		}
		if err := e.bookings.CreateTx(ctx, tx, b); err != nil {
			return nil, err
		}
		if i == 0 {
			firstBookingID = b.ID
		}
		conf.BookingIDs = append(conf.BookingIDs, b.ID)
		conf.SeatIDs = append(conf.SeatIDs, seat.ID)
		conf.SeatLabels = append(conf.SeatLabels, seat.Label)
	}

	// PaymentPending: the payment row and the gateway call live inside
	// this same transaction.  The ordering is load-bearing: a declined
	// payment rolls back seat claims, booking rows and the payment row
	// in one stroke, leaving the seats available.
	pay := &model.Payment{
		BookingID:   firstBookingID,
		AmountCents: total,
		Status:      model.PaymentPending,
	}
	if err := e.payments.CreateTx(ctx, tx, pay); err != nil {
		return nil, err
	}
	providerRef, payErr := e.gateway.Charge(ctx, total)
	if payErr != nil {
		// The failed statuses are recorded for within-transaction
		// consistency and then discarded by the rollback; the net
		// observable effect of a declined payment is nothing at all.
		_ = e.payments.UpdateStatusTx(ctx, tx, pay.ID, model.PaymentFailed, providerRef)
		_ = e.bookings.UpdateStatusByReferenceTx(ctx, tx, ref, model.BookingFailed)
		return nil, payErr
	}

	// Confirmed: the only path that durably consumes the seats.
	if err := e.payments.UpdateStatusTx(ctx, tx, pay.ID, model.PaymentSuccess, providerRef); err != nil {
		return nil, err
	}
	if err := e.bookings.UpdateStatusByReferenceTx(ctx, tx, ref, model.BookingConfirmed); err != nil {
		return nil, err
	}
	conf.PaymentID = pay.ID
	conf.ProviderRef = providerRef
	conf.Status = model.BookingConfirmed
	return conf, nil
}

// transient classifies a failure as worth retrying: datastore
// deadlock/serialization conflicts and booking reference collisions.
func transient(err error) bool {
	return database.IsRetryable(err) || database.IsDuplicateKey(err)
}

// dedupe drops zero and repeated seat IDs while preserving order.
func dedupe(ids []uint64) []uint64 {
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	return unique
}
