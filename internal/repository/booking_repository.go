package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// BookingRepo provides data access for bookings.  Booking rows are
// written exclusively inside the workflow transaction; after commit
// they are immutable, so all non-Tx methods here are reads.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts one booking row within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, event_id, seat_id, status, booking_reference, total_amount_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.EventID, b.SeatID, b.Status, b.BookingReference, b.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// UpdateStatusByReferenceTx moves every booking of a purchase group
// to the given status in a single statement.  Grouped rows always
// transition together; calling this outside the workflow transaction
// would break that invariant, so only a *sql.Tx variant exists.
func (r *BookingRepo) UpdateStatusByReferenceTx(ctx context.Context, tx *sql.Tx, reference, status string) error {
	const q = `UPDATE bookings SET status = ? WHERE booking_reference = ?`
	_, err := tx.ExecContext(ctx, q, status, reference)
	return err
}

// CountBySeat returns how many booking rows reference the given seat.
// The contention harness uses it as its independent no-overselling
// check after all attempts have settled.
func (r *BookingRepo) CountBySeat(ctx context.Context, seatID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE seat_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, seatID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// BookingGroup aggregates the booking rows sharing one reference into
// a single purchase for display, together with event and seat info.
type BookingGroup struct {
	BookingReference string    `json:"booking_reference"`
	EventID          uint64    `json:"event_id"`
	EventName        string    `json:"event_name"`
	Venue            string    `json:"venue"`
	EventDate        time.Time `json:"event_date"`
	Status           string    `json:"status"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
	CreatedAt        time.Time `json:"created_at"`
	SeatIDs          []uint64  `json:"seat_ids"`
	SeatLabels       []string  `json:"seats"`
}

// ListByUser returns the user's bookings grouped by booking
// reference, newest purchase first.  When no bookings exist an empty
// slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingGroup, error) {
	const q = `SELECT b.booking_reference, b.event_id, e.name, e.venue, e.event_date,
	                  b.status, b.total_amount_cents, b.created_at, b.seat_id, s.label
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           JOIN seats s ON s.id = b.seat_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.booking_reference, s.label`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]BookingGroup, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			ref    string
			g      BookingGroup
			seatID uint64
			label  string
		)
		if err := rows.Scan(&ref, &g.EventID, &g.EventName, &g.Venue, &g.EventDate,
			&g.Status, &g.TotalAmountCents, &g.CreatedAt, &seatID, &label); err != nil {
			return nil, err
		}
		idx, ok := index[ref]
		if !ok {
			g.BookingReference = ref
			g.SeatIDs = []uint64{}
			g.SeatLabels = []string{}
			idx = len(groups)
			index[ref] = idx
			groups = append(groups, g)
		}
		groups[idx].SeatIDs = append(groups[idx].SeatIDs, seatID)
		groups[idx].SeatLabels = append(groups[idx].SeatLabels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
