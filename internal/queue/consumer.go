package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const (
    auditLogDir  = "logs"
    auditLogFile = "booking.log"

    maxDialBackoff = 30 * time.Second
)

// StartBookingConsumer drains the confirmation queue and appends one
// audit line per booking group to logs/booking.log.  It reconnects
// with capped backoff for as long as ctx lives, so broker restarts
// only pause the audit trail.  A message that cannot be processed is
// rejected without requeue; the booking itself is already committed,
// so losing its audit line is an acceptable trade against a poison
// message loop.
func StartBookingConsumer(ctx context.Context) error {
    url := BrokerURL()
    backoff := time.Second

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        default:
        }

        conn, err := amqp.Dial(url)
        if err != nil {
            logrus.WithError(err).WithField("backoff", backoff).Warn("audit consumer: broker unreachable")
            select {
            case <-time.After(backoff):
            case <-ctx.Done():
                return ctx.Err()
            }
            if backoff < maxDialBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = drain(ctx, conn)
        _ = conn.Close()
        if errors.Is(err, context.Canceled) {
            return err
        }
        logrus.WithError(err).Warn("audit consumer: reconnecting")
    }
}

// drain consumes deliveries until the channel closes or ctx ends.
func drain(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer ch.Close()

    if _, err := ch.QueueDeclare(ConfirmedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare %s: %w", ConfirmedQueue, err)
    }
    if err := ch.Qos(50, 0, false); err != nil {
        return fmt.Errorf("set qos: %w", err)
    }
    deliveries, err := ch.Consume(ConfirmedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", ConfirmedQueue, err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-deliveries:
            if !ok {
                return errors.New("delivery channel closed")
            }
            if err := appendAuditLine(d.Body); err != nil {
                logrus.WithError(err).Warn("audit consumer: dropping message")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func appendAuditLine(body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("decode event: %w", err)
    }

    if err := os.MkdirAll(auditLogDir, 0o755); err != nil {
        return err
    }
    f, err := os.OpenFile(filepath.Join(auditLogDir, auditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return err
    }
    defer f.Close()

    _, err = fmt.Fprintf(f, "%s confirmed reference=%s user=%d event=%q venue=%q seats=[%s] total_cents=%d\n",
        ev.ConfirmedAt, ev.BookingReference, ev.UserID, ev.EventName, ev.Venue,
        strings.Join(ev.SeatLabels, " "), ev.TotalAmountCents)
    return err
}
