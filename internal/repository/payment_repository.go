package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// PaymentRepo provides data access for payments.  A payment row lives
// and dies with its workflow transaction: it is created pending,
// updated once to a terminal status, and either committed with the
// booking group or rolled back with it.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a pending payment row for a booking group within
// the provided transaction and populates the generated ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, amount_cents, status, provider_ref)
	           VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.BookingID, p.AmountCents, p.Status, p.ProviderRef)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdateStatusTx moves a payment to a terminal status and records the
// provider reference returned by the payment collaborator.
func (r *PaymentRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status, providerRef string) error {
	const q = `UPDATE payments SET status = ?, provider_ref = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, providerRef, id)
	return err
}
