// Package database wraps the MySQL connection, the serializable
// transaction runner and the failure classification the retry
// controller dispatches on.  Classification is typed (driver error
// numbers), never message matching.
package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the engine reacts to.
const (
	// errLockWaitTimeout (ER_LOCK_WAIT_TIMEOUT) is raised when a row
	// lock could not be acquired within innodb_lock_wait_timeout.
	errLockWaitTimeout = 1205
	// errDeadlock (ER_LOCK_DEADLOCK) is raised both for detected
	// deadlocks and for serialization conflicts under SERIALIZABLE;
	// InnoDB tells the victim to retry the whole transaction.
	errDeadlock = 1213
	// errDupEntry (ER_DUP_ENTRY) is raised on unique key violations,
	// e.g. a booking reference collision.
	errDupEntry = 1062
)

// IsRetryable reports whether err is a transient conflict (deadlock
// or lock wait timeout) that a fresh attempt of the whole transaction
// may resolve.  Business rejections never classify as
// retryable.
func IsRetryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWaitTimeout
	}
	return false
}

// IsDuplicateKey reports whether err is a unique constraint
// violation.  The booking workflow uses this to regenerate a colliding
// booking reference and retry.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDupEntry
	}
	return false
}
