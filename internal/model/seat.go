package model

// Seat describes a single bookable seat within an event.  Seats are
// the contended resource of the booking engine: is_booked may flip
// from false to true exactly once over the seat's lifetime, and the
// version counter increments exactly once per successful claim.  The
// version column backs the optimistic locking strategy.
//
// Fields:
//  ID       – primary key identifier.
//  EventID  – event to which this seat belongs.
//  Label    – human readable position, e.g. "A1".
//  IsBooked – whether the seat has been durably claimed.
//  Version  – monotonic counter bumped on every successful claim.
type Seat struct {
    ID       uint64 `json:"id"`        // seats.id
    EventID  uint64 `json:"event_id"`  // seats.event_id
    Label    string `json:"label"`     // seats.label
    IsBooked bool   `json:"is_booked"` // seats.is_booked
    Version  uint64 `json:"version"`   // seats.version
}
