package service

import (
    "context"
    "encoding/json"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/restaurant-reservation/internal/queue"
)

// EventPublisher delivers ledger events after their transaction commits.
// A failed publish never undoes the committed write.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.LedgerEvent) error
}

// NopPublisher drops every event.  Used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.LedgerEvent) error { return nil }

// defaultDialTimeout bounds the TCP dial to the broker; amqp.Dial alone
// waits 30s.
const defaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes persistent JSON messages to the ledger queue on
// the default exchange, dialing per message.
type AMQPPublisher struct {
    URL         string
    DialTimeout time.Duration
}

func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{URL: url, DialTimeout: defaultDialTimeout}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.LedgerEvent) error {
    timeout := p.DialTimeout
    if timeout <= 0 {
        timeout = defaultDialTimeout
    }
    conn, err := amqp.DialConfig(p.URL, amqp.Config{Heartbeat: 10 * time.Second, Locale: "en_US", Dial: amqp.DefaultDial(timeout)})
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    // idempotent; durable so events survive broker restarts
    if _, err := ch.QueueDeclare(queue.LedgerQueueName, true, false, false, false, nil); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return ch.PublishWithContext(ctx, "", queue.LedgerQueueName, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
}

// publish sends ev synchronously, after commit, with a bounded timeout
// and only logs failures.
func publish(p EventPublisher, ev queue.LedgerEvent) {
    if p == nil {
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := p.Publish(ctx, ev); err != nil {
        log.Warnf("ledger event %s for reservation %d not published: %v", ev.Type, ev.ReservationID, err)
    }
}
