package main // Entry point package

import (
	"context"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/sirupsen/logrus"  // structured logging

	"github.com/iliyamo/event-ticket-booking/internal/booking"
	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/database"
	"github.com/iliyamo/event-ticket-booking/internal/handler"
	"github.com/iliyamo/event-ticket-booking/internal/harness"
	"github.com/iliyamo/event-ticket-booking/internal/middleware"
	"github.com/iliyamo/event-ticket-booking/internal/payment"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real envs set variables directly
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Repositories
	seatRepo := repository.NewSeatRepo(db)
	eventRepo := repository.NewEventRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	// Booking engine: serializable transactions, retry policy and the
	// simulated payment collaborator.
	gateway := payment.NewSimulator(cfg.PaymentRate, cfg.PaymentDelay)
	policy := booking.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}
	engine := booking.NewEngine(booking.Runner(db), eventRepo, seatRepo, bookingRepo, paymentRepo, gateway, policy)

	// Contention harness drives the same engine as real requests.
	runner := harness.NewRunner(func(ctx context.Context, opts harness.Options) error {
		_, err := engine.Book(ctx, booking.Request{
			UserID:  opts.UserID,
			EventID: opts.EventID,
			SeatIDs: []uint64{opts.SeatID},
			Mode:    opts.Mode,
		})
		return err
	}, seatRepo, bookingRepo)

	// Handlers
	eventHandler := handler.NewEventHandler(eventRepo, seatRepo)
	bookingHandler := handler.NewBookingHandler(engine, bookingRepo, eventRepo)
	loadTestHandler := handler.NewLoadTestHandler(runner)

	// Optional Redis-backed response cache and rate limiter; both
	// degrade to no-ops when Redis is unreachable.
	rdb := config.NewRedisClient()
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, eventHandler, cache)
	router.RegisterBooking(e, bookingHandler, eventHandler, cfg.JWTSecret, ratelimit)
	router.RegisterLoadTest(e, loadTestHandler)

	// Background consumer appends confirmed bookings to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(context.Background()); err != nil {
			logrus.WithError(err).Warn("booking consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
