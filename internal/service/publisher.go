package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/queue"
)

// Publisher delivers clinic events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event.  It is used when RABBITMQ_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// dialTimeout bounds how long a request waits on an unreachable broker.
const dialTimeout = 3 * time.Second

// AMQPPublisher publishes events to a durable RabbitMQ queue.  A connection
// is dialed per publish; event volume is a handful per request at most.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// NewAMQPPublisher returns a publisher for url and queueName.
func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queueName}
}

// Publish sends ev as a persistent JSON message through the default
// exchange with the queue name as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.Event) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}

// events wraps a Publisher so that failures are logged and never reach
// the caller.  Requests must not fail because the broker is down.
type events struct {
	pub Publisher
	log zerolog.Logger
}

func newEvents(pub Publisher, log zerolog.Logger) events {
	if pub == nil {
		pub = NopPublisher{}
	}
	return events{pub: pub, log: log}
}

func (e events) emit(ctx context.Context, ev queue.Event) {
	if err := e.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn().Err(err).Str("event", ev.Type).Msg("publish event failed")
	}
}
