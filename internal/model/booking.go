package model

import "time"

// Booking statuses.  A booking is created PENDING inside the
// workflow transaction and finalised to CONFIRMED or FAILED before
// commit.  Rows are immutable afterwards.
const (
    BookingPending   = "pending"
    BookingConfirmed = "confirmed"
    BookingFailed    = "failed"
)

// Booking records one seat purchased by a user for an event.  Seats
// bought together share a booking_reference; all rows of a group are
// created and finalised within the same transaction and therefore
// always carry the same status.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user who made the booking.
//  EventID          – event being booked.
//  SeatID           – seat claimed by this row.
//  Status           – pending, confirmed or failed.
//  BookingReference – group key shared by a multi-seat purchase.
//  TotalAmountCents – total price in cents for the whole group.
//  CreatedAt        – creation timestamp.
type Booking struct {
    ID               uint64    `json:"id"`                 // bookings.id
    UserID           uint64    `json:"user_id"`            // bookings.user_id
    EventID          uint64    `json:"event_id"`           // bookings.event_id
    SeatID           uint64    `json:"seat_id"`            // bookings.seat_id
    Status           string    `json:"status"`             // bookings.status
    BookingReference string    `json:"booking_reference"`  // bookings.booking_reference
    TotalAmountCents uint32    `json:"total_amount_cents"` // bookings.total_amount_cents
    CreatedAt        time.Time `json:"created_at"`         // bookings.created_at
}
