package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// EventRepo provides data access for events.  Events own their seat
// grid: provisioning an event creates the event row and all of its
// seats within one transaction so a half-provisioned event is never
// visible.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// List returns all events ordered by event date ascending.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, name, description, venue, event_date, total_seats, price_cents, created_at
	           FROM events
	           ORDER BY event_date ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		var desc sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Name, &desc, &ev.Venue, &ev.EventDate,
			&ev.TotalSeats, &ev.PriceCents, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Description = desc.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByID retrieves an event by its id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, description, venue, event_date, total_seats, price_cents, created_at
	           FROM events WHERE id = ?`
	var ev model.Event
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&ev.ID, &ev.Name, &desc, &ev.Venue, &ev.EventDate, &ev.TotalSeats, &ev.PriceCents, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	ev.Description = desc.String
	return &ev, nil
}

// CreateWithSeats inserts an event and generates its seat grid inside
// one transaction.  Seat labels follow the A1..A10, B1.. layout with
// ten seats per row.  The event's ID is populated on success.
func (r *EventRepo) CreateWithSeats(ctx context.Context, ev *model.Event, seatRepo *SeatRepo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO events (name, description, venue, event_date, total_seats, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ev.Name, ev.Description, ev.Venue,
		ev.EventDate.UTC().Format("2006-01-02 15:04:05"), ev.TotalSeats, ev.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	if err := seatRepo.CreateBulkTx(ctx, tx, ev.ID, SeatLabels(int(ev.TotalSeats))); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SeatLabels generates n seat labels in rows of ten: A1..A10, B1..
func SeatLabels(n int) []string {
	labels := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		row := rune('A' + (i-1)/10)
		labels = append(labels, fmt.Sprintf("%c%d", row, (i-1)%10+1))
	}
	return labels
}
