// Package payment defines the payment collaborator contract consumed
// by the booking workflow and a simulator implementation used for
// development and load testing.  The engine only consumes the
// success/failure signal; real payment processing lives elsewhere.
package payment

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDeclined is returned when the payment collaborator rejects the
// charge.  The booking workflow treats it as a terminal rejection:
// the enclosing transaction rolls back and the seats stay available.
var ErrDeclined = errors.New("payment declined")

// Gateway is the payment outcome signal the workflow invokes inside
// its open transaction.  Implementations must have bounded latency;
// the transaction (and any row locks it holds) stays open for the
// duration of the call.
type Gateway interface {
	// Charge attempts to collect amountCents and returns the
	// provider's reference for the attempt.  A declined charge
	// returns the reference together with ErrDeclined.
	Charge(ctx context.Context, amountCents uint32) (providerRef string, err error)
}

// Simulator is a Gateway that approves a configurable fraction of
// charges after a fixed processing delay.  Rate 1.0 approves
// everything (the load-test default); lower it to exercise the
// rollback path.
type Simulator struct {
	Rate  float64       // fraction of charges approved, 0..1
	Delay time.Duration // simulated processing latency
}

// NewSimulator returns a Simulator with the given approval rate and
// processing delay.
func NewSimulator(rate float64, delay time.Duration) *Simulator {
	return &Simulator{Rate: rate, Delay: delay}
}

// Charge waits out the processing delay (abandoning early on ctx
// cancellation), then draws the outcome.
func (s *Simulator) Charge(ctx context.Context, amountCents uint32) (string, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	ref := uuid.NewString()
	approved := rand.Float64() < s.Rate
	logrus.WithFields(logrus.Fields{
		"amount_cents": amountCents,
		"provider_ref": ref,
		"approved":     approved,
	}).Debug("payment simulation")
	if !approved {
		return ref, ErrDeclined
	}
	return ref, nil
}
