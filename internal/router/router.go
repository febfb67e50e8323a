package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers
// and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests
// can inspect events and seat availability before logging in; these
// routes sit behind the optional Redis response cache.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	// List all events ordered by date
	g.GET("/events", ev.ListEvents)
	// Event details by id
	g.GET("/events/:id", ev.GetEvent)
	// Seat availability map for an event (FREE/booked per seat)
	g.GET("/events/:id/seats", ev.GetEventSeats)
}

// RegisterBooking registers the authenticated booking endpoints.  The
// JWT middleware verifies tokens issued by the external auth service
// and injects the user ID; the rate limiter protects the contended
// booking path from abusive clients.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, ev *handler.EventHandler, jwtSecret string, ratelimit echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	if ratelimit != nil {
		auth.Use(ratelimit)
	}
	// Book one or more seats; ?mode=pessimistic|optimistic selects the
	// locking strategy (pessimistic is the default)
	auth.POST("/bookings", b.CreateBooking)
	// The caller's bookings grouped by booking reference
	auth.GET("/my-bookings", b.MyBookings)
	// Provision an event together with its seat grid
	auth.POST("/events", ev.CreateEvent)
}

// RegisterLoadTest registers the contention harness endpoint.  It is
// unauthenticated on purpose: the harness targets disposable seats in
// development and CI environments, never production data.
func RegisterLoadTest(e *echo.Echo, lt *handler.LoadTestHandler) {
	e.POST("/v1/test/concurrent-bookings", lt.SimulateConcurrentBookings)
}
