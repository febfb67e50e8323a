package model

import "time"

// User identifies a customer making bookings.  Token issuance happens
// outside this service; the JWT middleware only verifies tokens and
// extracts the user ID, so the engine never handles credentials beyond
// seeding demo accounts.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    Name         string    // users.name
    PasswordHash string    // users.password_hash (bcrypt)
    CreatedAt    time.Time // users.created_at
}
