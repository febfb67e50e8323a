package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides data access for users.  The engine only needs
// existence checks (booking validation) and inserts (seed tool);
// credential handling beyond the stored hash lives outside this
// service.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user.  Existing emails are left untouched so the
// seed tool stays idempotent.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE id = id`
	res, err := r.db.ExecContext(ctx, q, u.Email, u.Name, u.PasswordHash)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		u.ID = uint64(id)
	}
	return nil
}

// Exists reports whether a user with the given id is present.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT id FROM users WHERE id = ?`
	var got uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
