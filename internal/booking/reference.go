package booking

import "crypto/rand"

// refAlphabet excludes visually confusable characters (0/O, 1/I) so
// references survive being read aloud or retyped from a ticket.
const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	refPrefix = "TKT-"
	refLength = 6
)

// NewReference generates a short booking reference such as
// "TKT-7KQ2MB" from cryptographically secure random bytes.  The
// alphabet length divides 256, so the byte modulo is unbiased.  A
// collision is caught by the uniqueness key on bookings and resolved
// by regenerating on the next attempt of the workflow.
func NewReference() (string, error) {
	b := make([]byte, refLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, refLength)
	for i, v := range b {
		out[i] = refAlphabet[int(v)%len(refAlphabet)]
	}
	return refPrefix + string(out), nil
}
