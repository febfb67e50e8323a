// Command seed creates the schema and provisions demo data: two
// users with bcrypt-hashed passwords and two events with generated
// seat grids.  It is idempotent, so re-running against an existing
// database is safe.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/event-ticket-booking/internal/config"
	"github.com/iliyamo/event-ticket-booking/internal/database"
	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logrus.WithError(err).Fatal("schema setup failed")
	}
	logrus.Info("schema ready")

	userRepo := repository.NewUserRepo(db)
	for _, u := range []struct {
		email, name, password string
	}{
		{"john@example.com", "John Doe", "password123"},
		{"jane@example.com", "Jane Smith", "testuser123"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Fatal("password hashing failed")
		}
		user := &model.User{Email: u.email, Name: u.name, PasswordHash: string(hash)}
		if err := userRepo.Create(ctx, user); err != nil {
			logrus.WithError(err).Fatal("user seed failed")
		}
		logrus.WithField("email", u.email).Info("user seeded")
	}

	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	if existing, err := eventRepo.List(ctx); err != nil {
		logrus.WithError(err).Fatal("event lookup failed")
	} else if len(existing) > 0 {
		logrus.WithField("events", len(existing)).Info("events already present, skipping event seed")
		return
	}
	for _, ev := range []*model.Event{
		{
			Name:        "Rock Concert 2026",
			Description: "An evening of loud guitars.",
			Venue:       "City Arena",
			EventDate:   time.Now().UTC().AddDate(0, 1, 0),
			TotalSeats:  50,
			PriceCents:  5000,
		},
		{
			Name:        "Tech Conference 2026",
			Description: "Talks, hallway track, coffee.",
			Venue:       "Convention Center",
			EventDate:   time.Now().UTC().AddDate(0, 2, 0),
			TotalSeats:  100,
			PriceCents:  12500,
		},
	} {
		if err := eventRepo.CreateWithSeats(ctx, ev, seatRepo); err != nil {
			logrus.WithError(err).WithField("event", ev.Name).Fatal("event seed failed")
		}
		logrus.WithFields(logrus.Fields{"event_id": ev.ID, "seats": ev.TotalSeats}).Info("event seeded")
	}

	logrus.Info("seed complete")
}
