package model

import "time"

// Event represents a ticketed event for which seats are sold.  Seats
// are generated in bulk when the event is provisioned and reference
// the event through their event_id column.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the event.
//  Description – optional longer description.
//  Venue       – where the event takes place.
//  EventDate   – when the event starts (UTC).
//  TotalSeats  – number of seats generated for the event.
//  PriceCents  – price per seat in cents.
//  CreatedAt   – creation timestamp.
type Event struct {
    ID          uint64    `json:"id"`          // events.id
    Name        string    `json:"name"`        // events.name
    Description string    `json:"description"` // events.description
    Venue       string    `json:"venue"`       // events.venue
    EventDate   time.Time `json:"event_date"`  // events.event_date
    TotalSeats  uint32    `json:"total_seats"` // events.total_seats
    PriceCents  uint32    `json:"price_cents"` // events.price_cents
    CreatedAt   time.Time `json:"created_at"`  // events.created_at
}
