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

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

// StartLedgerConsumer consumes LedgerQueueName and appends one line per
// event to <dir>/ledger.log.  Broker failures are retried with backoff;
// the function returns only when ctx is cancelled.
func StartLedgerConsumer(ctx context.Context, url, dir string) error {
    backoff := time.Second
    for {
        conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second, Locale: "en_US", Dial: amqp.DefaultDial(5 * time.Second)})
        if err != nil {
            log.Warnf("ledger-consumer: dial failed: %v; retrying in %s", err, backoff)
            select {
            case <-ctx.Done():
                return nil
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, dir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        log.Warnf("ledger-consumer: consume loop ended: %v; reconnecting", err)
        select {
        case <-ctx.Done():
            return nil
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warnf("ledger-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(LedgerQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, LedgerQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(dir, d.Body); err != nil {
                log.Errorf("ledger-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // poison messages are dropped, not requeued
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its audit line.
func HandleMessage(dir string, body []byte) error {
    var ev LedgerEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == 0 {
        return errors.New("event without type or reservation id")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "ledger.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as a single key=value line.
func FormatLine(ev LedgerEvent) string {
    parts := []string{
        fmt.Sprintf("[%s] %s", ev.OccurredAt, ev.Type),
        fmt.Sprintf("event_id=%s", ev.ID),
        fmt.Sprintf("reservation_id=%d", ev.ReservationID),
    }
    if ev.ParticipantID != nil {
        parts = append(parts, fmt.Sprintf("participant_id=%d", *ev.ParticipantID))
    }
    if ev.ParticipantCount > 0 {
        parts = append(parts, fmt.Sprintf("participants=%d", ev.ParticipantCount))
    }
    if ev.MenuID != nil {
        parts = append(parts, fmt.Sprintf("menu_id=%d", *ev.MenuID))
    }
    if ev.StatusID != nil {
        parts = append(parts, fmt.Sprintf("status_id=%d", *ev.StatusID))
    }
    if ev.Amount != "" {
        parts = append(parts, fmt.Sprintf("amount=%s", ev.Amount))
    }
    return strings.Join(parts, " | ") + "\n"
}
