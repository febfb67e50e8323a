package database

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSerializable executes fn inside a transaction at SERIALIZABLE
// isolation.  The transaction commits only when fn returns nil; any
// error (from the datastore or signalled explicitly by fn) rolls the
// transaction back and is returned to the caller unchanged, wrapped
// only when commit itself fails.  The connection is drawn from the
// db pool and returned on every exit path by Commit/Rollback.
//
// Workflow effects are invisible to other transactions until commit,
// so a failing workflow leaves zero persisted side effects.
func RunSerializable(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin serializable tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
