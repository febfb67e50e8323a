package model

// Payment statuses.  A payment row is created PENDING alongside its
// booking group and updated exactly once to a terminal status inside
// the same transaction.  The payment outcome determines the booking
// outcome, never the reverse.
const (
    PaymentPending = "pending"
    PaymentSuccess = "success"
    PaymentFailed  = "failed"
)

// Payment records the payment attempt for a booking group.  It
// references the first booking row of the group.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – first booking of the group this payment covers.
//  AmountCents – charged amount in cents.
//  Status      – pending, success or failed.
//  ProviderRef – reference returned by the payment collaborator.
type Payment struct {
    ID          uint64 `json:"id"`           // payments.id
    BookingID   uint64 `json:"booking_id"`   // payments.booking_id
    AmountCents uint32 `json:"amount_cents"` // payments.amount_cents
    Status      string `json:"status"`       // payments.status
    ProviderRef string `json:"provider_ref"` // payments.provider_ref
}
