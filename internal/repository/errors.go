// Package repository defines error values shared across repositories.
// These sentinels let higher layers distinguish business rejections
// from infrastructure failures: a rejection is terminal and reported
// to the caller as a conflict, while transient datastore conflicts
// are classified separately by the database package and retried.
package repository

import "errors"

// ErrAlreadyBooked is returned when a claim finds the seat already
// booked.  Both locking strategies surface it; it is never retried
// because a retry could not change the outcome.  Handlers translate
// it into an HTTP 409 response.
var ErrAlreadyBooked = errors.New("seat already booked")

// ErrVersionConflict is returned when the optimistic CAS update
// touches zero rows because a concurrent writer advanced the seat
// version first.  It is the mechanism's normal rejection signal for
// the losing writer, not an internal error.  Handlers translate it
// into an HTTP 409 response.
var ErrVersionConflict = errors.New("seat version conflict")
