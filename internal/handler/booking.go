package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/booking"
	"github.com/iliyamo/event-ticket-booking/internal/payment"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	queue_publisher "github.com/iliyamo/event-ticket-booking/internal/service"
)

// BookingHandler exposes the booking workflow over HTTP.  The engine
// does the heavy lifting; this layer validates input, maps engine
// errors onto status codes and publishes the confirmation event after
// the transaction has committed.
type BookingHandler struct {
	Engine      *booking.Engine
	BookingRepo *repository.BookingRepo
	EventRepo   *repository.EventRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(engine *booking.Engine, bookingRepo *repository.BookingRepo, eventRepo *repository.EventRepo) *BookingHandler {
	if engine == nil || bookingRepo == nil || eventRepo == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, BookingRepo: bookingRepo, EventRepo: eventRepo}
}

// CreateBooking handles POST /v1/bookings.  The request body names
// the event and seats; the locking mode comes from the optional
// ?mode= query parameter (pessimistic default, optimistic opt-in).
// The caller receives either a confirmed booking summary or a
// structured rejection - never an ambiguous in-between state.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		EventID uint64   `json:"event_id"`
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}

	req := booking.Request{
		UserID:  userID,
		EventID: body.EventID,
		SeatIDs: body.SeatIDs,
		Mode:    c.QueryParam("mode"),
	}
	conf, err := h.Engine.Book(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidMode):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid locking mode, use \"pessimistic\" or \"optimistic\""})
		case errors.Is(err, booking.ErrNoSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, repository.ErrAlreadyBooked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is already booked"})
		case errors.Is(err, repository.ErrVersionConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat booking conflict, please retry"})
		case errors.Is(err, payment.ErrDeclined):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment failed"})
		case errors.Is(err, booking.ErrRetriesExhausted):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking conflict persisted, try again later"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	h.publishConfirmed(userID, req.EventID, conf)
	return c.JSON(http.StatusCreated, echo.Map{"item": conf})
}

// MyBookings handles GET /v1/my-bookings.  It returns the user's
// bookings grouped by reference, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groups, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// publishConfirmed emits the confirmation event on a detached
// goroutine.  The booking is already committed, so a broker outage
// only costs the notification, never the booking.
func (h *BookingHandler) publishConfirmed(userID, eventID uint64, conf *booking.Confirmation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev, err := h.EventRepo.GetByID(ctx, eventID)
		if err != nil {
			return
		}
		_ = queue_publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingReference: conf.Reference,
			UserID:           userID,
			EventID:          eventID,
			EventName:        ev.Name,
			Venue:            ev.Venue,
			SeatLabels:       conf.SeatLabels,
			TotalAmountCents: conf.TotalAmountCents,
			ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
		})
	}()
}
