// Package queue_publisher pushes domain events to the message broker.
// Publishing is strictly best-effort: by the time a confirmation event
// exists the booking has already committed, so callers log failures
// and move on rather than failing the request.
package queue_publisher

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticket-booking/internal/queue"
)

// PublishBookingConfirmed delivers a BookingConfirmedEvent to the
// confirmation queue as a persistent message.  Each call opens a
// short-lived connection; confirmation volume is bounded by booking
// throughput, which the database caps long before connection churn
// matters.
func PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error {
    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("encode event: %w", err)
    }

    conn, err := amqp.Dial(queue.BrokerURL())
    if err != nil {
        logrus.WithError(err).Warn("publisher: broker unreachable")
        return err
    }
    defer conn.Close()

    ch, err := conn.Channel()
    if err != nil {
        logrus.WithError(err).Warn("publisher: channel open failed")
        return err
    }
    defer ch.Close()

    if _, err := ch.QueueDeclare(queue.ConfirmedQueue, true, false, false, false, nil); err != nil {
        logrus.WithError(err).Warn("publisher: queue declare failed")
        return err
    }

    err = ch.PublishWithContext(ctx, "", queue.ConfirmedQueue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        logrus.WithError(err).WithField("reference", event.BookingReference).Warn("publisher: publish failed")
        return err
    }
    return nil
}
