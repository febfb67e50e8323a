package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database.  The
// claim methods (LockForUpdateTx, BookTx, BookVersionTx) are the only
// mutation entry points for a seat row; nothing else in the engine
// writes is_booked or version.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle so callers can begin transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// GetByID retrieves a seat by its id outside any transaction.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, is_booked, version FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.EventID, &s.Label, &s.IsBooked, &s.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDTx reads a seat inside the given transaction without taking
// a row lock.  The optimistic strategy uses it as an early-exit
// check only: two claimants may both observe the seat as available
// here, and correctness relies entirely on the CAS in BookVersionTx.
func (r *SeatRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, is_booked, version FROM seats WHERE id = ?`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.EventID, &s.Label, &s.IsBooked, &s.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// LockForUpdateTx reads a seat under an exclusive row lock
// (SELECT ... FOR UPDATE).  Concurrent transactions locking the same
// row block until this transaction commits or rolls back, which is
// what serialises pessimistic claimants.
func (r *SeatRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, label, is_booked, version FROM seats WHERE id = ? FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.EventID, &s.Label, &s.IsBooked, &s.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// BookTx marks a seat booked after the caller has locked the row via
// LockForUpdateTx.  The is_booked guard in the WHERE clause is a
// final safety net: with the lock held it can only fail when the seat
// was already booked, which maps to ErrAlreadyBooked.
func (r *SeatRepo) BookTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `UPDATE seats SET is_booked = 1, version = version + 1 WHERE id = ? AND is_booked = 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlreadyBooked
	}
	return r.GetByIDTx(ctx, tx, id)
}

// BookVersionTx performs the optimistic compare-and-swap: the seat is
// booked only when its version still matches expectedVersion and it
// is not booked yet.  Zero affected rows means a concurrent writer
// won the race; that is reported as ErrVersionConflict.  No blocking
// occurs - losers discover the conflict at write time.
func (r *SeatRepo) BookVersionTx(ctx context.Context, tx *sql.Tx, id, expectedVersion uint64) (*model.Seat, error) {
	const q = `UPDATE seats SET is_booked = 1, version = version + 1
	           WHERE id = ? AND version = ? AND is_booked = 0`
	res, err := tx.ExecContext(ctx, q, id, expectedVersion)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrVersionConflict
	}
	return r.GetByIDTx(ctx, tx, id)
}

// GetByEvent retrieves all seats of an event ordered by label.
func (r *SeatRepo) GetByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, label, is_booked, version
	           FROM seats
	           WHERE event_id = ?
	           ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.Label, &s.IsBooked, &s.Version); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateBulkTx inserts seats for an event in a single statement.
// Used when provisioning an event; never called on the booking path.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, eventID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT INTO seats (event_id, label) VALUES `
	args := make([]interface{}, 0, len(labels)*2)
	for i, label := range labels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, eventID, label)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
