package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// EventHandler serves event browsing and provisioning.  Browsing is
// read-only and sits behind the response cache; provisioning creates
// the event row together with its full seat grid in one transaction.
type EventHandler struct {
	EventRepo *repository.EventRepo
	SeatRepo  *repository.SeatRepo
}

// NewEventHandler constructs an EventHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewEventHandler(eventRepo *repository.EventRepo, seatRepo *repository.SeatRepo) *EventHandler {
	if eventRepo == nil || seatRepo == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{EventRepo: eventRepo, SeatRepo: seatRepo}
}

// ListEvents handles GET /v1/events.  It returns all events ordered
// by date.
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.EventRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.EventRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": ev})
}

// GetEventSeats handles GET /v1/events/:id/seats.  It returns the
// seat availability map for an event so clients can render the grid.
func (h *EventHandler) GetEventSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.EventRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.GetByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// CreateEvent handles POST /v1/events.  It provisions an event with
// its seat grid; seats receive labels A1..A10, B1.. in rows of ten.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Venue       string `json:"venue"`
		EventDate   string `json:"event_date"`
		TotalSeats  uint32 `json:"total_seats"`
		PriceCents  uint32 `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.Venue == "" || body.TotalSeats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, venue and total_seats are required"})
	}
	date, err := time.Parse(time.RFC3339, body.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be RFC3339"})
	}
	ev := &model.Event{
		Name:        body.Name,
		Description: body.Description,
		Venue:       body.Venue,
		EventDate:   date.UTC(),
		TotalSeats:  body.TotalSeats,
		PriceCents:  body.PriceCents,
	}
	if ev.PriceCents == 0 {
		ev.PriceCents = 5000 // default ticket price
	}
	if err := h.EventRepo.CreateWithSeats(c.Request().Context(), ev, h.SeatRepo); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": ev})
}
