package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher is the handler-side interface; it is satisfied by
// AMQPPublisher and trivially mockable in tests.
type Publisher interface {
	PublishCleanup(ctx context.Context, ev AssetCleanupEvent) error
}

// AMQPPublisher publishes cleanup events to RabbitMQ. Each publish
// dials its own short-lived connection: cleanup events are rare
// (they only fire on partial failures) and a persistent channel is not
// worth managing for them.
type AMQPPublisher struct {
	URL string
	Log *logrus.Logger
}

// PublishCleanup declares the durable queue and publishes the event as
// a persistent message. Errors are logged and returned; callers treat
// publishing as best-effort and never fail the request over it.
func (p *AMQPPublisher) PublishCleanup(ctx context.Context, ev AssetCleanupEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.WithError(err).Error("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(CleanupQueueName, true, false, false, false, nil); err != nil {
		p.Log.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", CleanupQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.Log.WithError(err).Error("rabbitmq: publish failed")
	}
	return err
}
