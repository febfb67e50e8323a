package booking

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/payment"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// fakeStore backs the workflow ports with in-memory state.  Its
// runner emulates transaction semantics: state is snapshotted before
// each attempt and restored when the attempt returns an error, so a
// failed pass leaves nothing behind, exactly like a rollback.
type fakeStore struct {
	seats    *fakeSeats
	bookings []model.Booking
	payments []model.Payment

	nextBookingID uint64
	nextPaymentID uint64

	// createErrs is popped once per booking insert, letting tests
	// script datastore failures at a realistic statement boundary.
	createErrs []error

	refsSeen []string
	txCount  int
}

func newFakeStore(seats ...*model.Seat) *fakeStore {
	return &fakeStore{seats: newFakeSeats(seats...)}
}

func (s *fakeStore) runner() TxRunner {
	return func(_ context.Context, fn func(tx *sql.Tx) error) error {
		s.txCount++
		seatSnap := make(map[uint64]*model.Seat, len(s.seats.seats))
		for id, seat := range s.seats.seats {
			cp := *seat
			seatSnap[id] = &cp
		}
		bookSnap := append([]model.Booking(nil), s.bookings...)
		paySnap := append([]model.Payment(nil), s.payments...)

		if err := fn(nil); err != nil {
			s.seats.seats = seatSnap
			s.bookings = bookSnap
			s.payments = paySnap
			return err
		}
		return nil
	}
}

func (s *fakeStore) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	s.refsSeen = append(s.refsSeen, b.BookingReference)
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	s.nextBookingID++
	b.ID = s.nextBookingID
	s.bookings = append(s.bookings, *b)
	return nil
}

func (s *fakeStore) UpdateStatusByReferenceTx(_ context.Context, _ *sql.Tx, reference, status string) error {
	for i := range s.bookings {
		if s.bookings[i].BookingReference == reference {
			s.bookings[i].Status = status
		}
	}
	return nil
}

type fakePayments struct {
	store *fakeStore
}

func (f *fakePayments) CreateTx(_ context.Context, _ *sql.Tx, p *model.Payment) error {
	f.store.nextPaymentID++
	p.ID = f.store.nextPaymentID
	f.store.payments = append(f.store.payments, *p)
	return nil
}

func (f *fakePayments) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status, providerRef string) error {
	for i := range f.store.payments {
		if f.store.payments[i].ID == id {
			f.store.payments[i].Status = status
			f.store.payments[i].ProviderRef = providerRef
		}
	}
	return nil
}

type fakeEvents struct {
	event *model.Event
	err   error
	calls int
}

func (f *fakeEvents) GetByID(context.Context, uint64) (*model.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.event
	return &cp, nil
}

// fakeGateway declines the first n charges and approves the rest.
type fakeGateway struct {
	declines int
	charges  int
	amounts  []uint32
}

func (f *fakeGateway) Charge(_ context.Context, amountCents uint32) (string, error) {
	f.charges++
	f.amounts = append(f.amounts, amountCents)
	if f.declines > 0 {
		f.declines--
		return "", payment.ErrDeclined
	}
	return "pay_test_ref", nil
}

func testEngine(store *fakeStore, events *fakeEvents, gw payment.Gateway) *Engine {
	return NewEngine(store.runner(), events, store.seats, store, &fakePayments{store: store}, gw, fastPolicy(3))
}

func demoEvent() *fakeEvents {
	return &fakeEvents{event: &model.Event{ID: 1, Name: "Launch Night", PriceCents: 5000, TotalSeats: 10}}
}

func deadlockErr() error {
	return &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
}

func dupKeyErr() error {
	return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
}

func TestBookSingleSeatConfirms(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	gw := &fakeGateway{}
	eng := testEngine(store, demoEvent(), gw)

	conf, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}})
	require.NoError(t, err)

	assert.Equal(t, model.BookingConfirmed, conf.Status)
	assert.Equal(t, []string{"A1"}, conf.SeatLabels)
	assert.Equal(t, uint32(5000), conf.TotalAmountCents)
	assert.Equal(t, "pay_test_ref", conf.ProviderRef)
	assert.Len(t, conf.Reference, len(refPrefix)+refLength)

	require.Len(t, store.bookings, 1)
	assert.Equal(t, model.BookingConfirmed, store.bookings[0].Status)
	assert.Equal(t, conf.Reference, store.bookings[0].BookingReference)
	require.Len(t, store.payments, 1)
	assert.Equal(t, model.PaymentSuccess, store.payments[0].Status)
	assert.True(t, store.seats.seats[1].IsBooked)
	assert.Equal(t, []uint32{5000}, gw.amounts, "the gateway must be charged the priced total")
}

func TestBookMultiSeatSharesReferenceAndTotal(t *testing.T) {
	store := newFakeStore(
		&model.Seat{ID: 1, EventID: 1, Label: "A1"},
		&model.Seat{ID: 2, EventID: 1, Label: "A2"},
		&model.Seat{ID: 3, EventID: 1, Label: "A3"},
	)
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	conf, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, uint32(15000), conf.TotalAmountCents)
	require.Len(t, store.bookings, 3)
	for _, b := range store.bookings {
		assert.Equal(t, conf.Reference, b.BookingReference, "the purchase group shares one reference")
		assert.Equal(t, uint32(15000), b.TotalAmountCents)
	}
	require.Len(t, store.payments, 1, "one payment covers the whole group")
}

func TestBookGroupAbortsWhenOneSeatIsTaken(t *testing.T) {
	store := newFakeStore(
		&model.Seat{ID: 1, EventID: 1, Label: "A1"},
		&model.Seat{ID: 2, EventID: 1, Label: "A2", IsBooked: true, Version: 1},
	)
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1, 2}})
	assert.ErrorIs(t, err, repository.ErrAlreadyBooked)

	assert.False(t, store.seats.seats[1].IsBooked, "the first claim must be released with the group")
	assert.Empty(t, store.bookings)
	assert.Empty(t, store.payments)
}

func TestBookDeclinedPaymentLeavesNothingBehind(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	eng := testEngine(store, demoEvent(), &fakeGateway{declines: 3})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}})
	assert.ErrorIs(t, err, payment.ErrDeclined)

	assert.False(t, store.seats.seats[1].IsBooked)
	assert.Empty(t, store.bookings)
	assert.Empty(t, store.payments)
	assert.Equal(t, 1, store.txCount, "a decline is a rejection, not a conflict to retry")
}

func TestBookInvalidModeFailsBeforeAnyTransaction(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	events := demoEvent()
	eng := testEngine(store, events, &fakeGateway{})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}, Mode: "eventual"})
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Zero(t, events.calls)
	assert.Zero(t, store.txCount)
}

func TestBookRejectsEmptySeatList(t *testing.T) {
	store := newFakeStore()
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	for _, ids := range [][]uint64{nil, {}, {0, 0}} {
		_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: ids})
		assert.ErrorIs(t, err, ErrNoSeats)
	}
	assert.Zero(t, store.txCount)
}

func TestBookDeduplicatesSeatIDs(t *testing.T) {
	store := newFakeStore(
		&model.Seat{ID: 5, EventID: 1, Label: "A5"},
		&model.Seat{ID: 6, EventID: 1, Label: "A6"},
	)
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	conf, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{5, 5, 0, 6}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 6}, conf.SeatIDs)
	assert.Equal(t, uint32(10000), conf.TotalAmountCents, "duplicates must not be priced twice")
	assert.Len(t, store.bookings, 2)
}

func TestBookUnknownEventFailsBeforeAnyTransaction(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	events := &fakeEvents{err: repository.ErrEventNotFound}
	eng := testEngine(store, events, &fakeGateway{})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 42, SeatIDs: []uint64{1}})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.Zero(t, store.txCount)
}

func TestBookRetriesDeadlockAndSucceeds(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	store.createErrs = []error{deadlockErr()}
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	conf, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}})
	require.NoError(t, err)

	assert.Equal(t, 2, store.txCount, "the deadlocked attempt must be retried as a whole")
	require.Len(t, store.bookings, 1, "the rolled-back attempt must not leak rows")
	assert.Equal(t, conf.Reference, store.bookings[0].BookingReference)
	assert.True(t, store.seats.seats[1].IsBooked)
}

func TestBookRegeneratesReferenceOnCollision(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	store.createErrs = []error{dupKeyErr()}
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}})
	require.NoError(t, err)

	require.Len(t, store.refsSeen, 2)
	assert.NotEqual(t, store.refsSeen[0], store.refsSeen[1], "each attempt must carry a fresh reference")
}

func TestBookExhaustsRetriesUnderPersistentDeadlock(t *testing.T) {
	store := newFakeStore(&model.Seat{ID: 1, EventID: 1, Label: "A1"})
	store.createErrs = []error{deadlockErr(), deadlockErr(), deadlockErr()}
	eng := testEngine(store, demoEvent(), &fakeGateway{})

	_, err := eng.Book(context.Background(), Request{UserID: 9, EventID: 1, SeatIDs: []uint64{1}})
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var myErr *mysql.MySQLError
	assert.ErrorAs(t, err, &myErr, "the last datastore failure must stay reachable")
	assert.Equal(t, 3, store.txCount)
	assert.Empty(t, store.bookings)
	assert.False(t, store.seats.seats[1].IsBooked)
}
