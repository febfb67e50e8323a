package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/booking"
	"github.com/iliyamo/event-ticket-booking/internal/harness"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// LoadTestHandler exposes the contention harness.  It exists to
// demonstrate and verify the engine's no-overselling guarantee under
// real concurrency; it is not part of the customer-facing flow.
type LoadTestHandler struct {
	Runner *harness.Runner
}

// NewLoadTestHandler constructs a LoadTestHandler around the runner.
func NewLoadTestHandler(runner *harness.Runner) *LoadTestHandler {
	if runner == nil {
		panic("nil runner passed to NewLoadTestHandler")
	}
	return &LoadTestHandler{Runner: runner}
}

// SimulateConcurrentBookings handles POST /v1/test/concurrent-bookings.
// The body names a seat, its event and an attempt count (default 200);
// the harness fires that many concurrent single-seat bookings and
// reports the outcome breakdown plus the invariant verdict.
func (h *LoadTestHandler) SimulateConcurrentBookings(c echo.Context) error {
	var body struct {
		SeatID   uint64 `json:"seat_id"`
		EventID  uint64 `json:"event_id"`
		UserID   uint64 `json:"user_id"`
		Attempts int    `json:"attempts"`
		Mode     string `json:"mode"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SeatID == 0 || body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id and event_id are required"})
	}
	if body.Attempts == 0 {
		body.Attempts = 200
	}
	if body.UserID == 0 {
		body.UserID = 1
	}
	if _, err := booking.StrategyFor(body.Mode); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid locking mode"})
	}

	report, err := h.Runner.Run(c.Request().Context(), harness.Options{
		SeatID:   body.SeatID,
		EventID:  body.EventID,
		UserID:   body.UserID,
		Attempts: body.Attempts,
		Mode:     body.Mode,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load test failed"})
	}
	return c.JSON(http.StatusOK, report)
}
