package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/lmarsden/film-catalog/internal/storage"
)

// StartCleanupConsumer connects to RabbitMQ and deletes every object
// named by an AssetCleanupEvent from the image store. It runs a
// reconnect loop with exponential backoff and never returns under
// normal operation; a delete failure nacks the message back onto the
// queue so it is retried later.
func StartCleanupConsumer(url string, store storage.ImageStore, log *logrus.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("cleanup-consumer: dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, store, log); err != nil {
			log.WithError(err).Warn("cleanup-consumer: consume loop ended; reconnecting")
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, store storage.ImageStore, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(CleanupQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(CleanupQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev AssetCleanupEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.WithError(err).Error("cleanup-consumer: bad message dropped")
			_ = d.Nack(false, false)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := store.Remove(ctx, ev.Key)
		cancel()
		if err != nil {
			// Requeue: the object still exists and must go eventually.
			log.WithError(err).WithField("key", ev.Key).Warn("cleanup-consumer: delete failed, requeued")
			_ = d.Nack(false, true)
			continue
		}
		log.WithFields(logrus.Fields{"key": ev.Key, "reason": ev.Reason}).Info("cleanup-consumer: removed orphaned object")
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
