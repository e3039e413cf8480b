package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/metrics"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type ConfirmationSender interface {
	SendConfirmationEmail(ctx context.Context, request service.ConfirmationRequest) error
}

// Consumer delivers confirmation emails for messages on the confirmation queue.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	sender   ConfirmationSender
	logger   logrus.FieldLogger
}

func NewConsumer(url string, sender ConfirmationSender, logger logrus.FieldLogger) *Consumer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Consumer{
		url:      url,
		queue:    ConfirmationQueueName,
		prefetch: 20,
		sender:   sender,
		logger:   logger,
	}
}

// Run consumes until ctx is cancelled, reconnecting with backoff when the
// broker connection fails.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.WithError(err).WithField("retry_in", backoff.String()).Warn("confirmation-consumer: dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WithError(err).Warn("confirmation-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.WithError(err).Warn("confirmation-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(ctx, delivery.Body); err != nil {
				c.logger.WithError(err).Error("confirmation-consumer: handle message failed")
				metrics.ConfirmationsDelivered.WithLabelValues("failed").Inc()
				// reject without requeue to avoid tight redelivery loops
				_ = delivery.Nack(false, false)
				continue
			}
			metrics.ConfirmationsDelivered.WithLabelValues("sent").Inc()
			_ = delivery.Ack(false)
		}
	}
}

// HandleMessage decodes one message body and sends the confirmation email.
func (c *Consumer) HandleMessage(ctx context.Context, body []byte) error {
	var event ConfirmationRequestedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	request, err := event.Request()
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if err := c.sender.SendConfirmationEmail(ctx, request); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", request.Email, err)
	}
	c.logger.WithFields(logrus.Fields{
		"subscription_id": request.SubscriptionID,
		"hostname":        request.Hostname,
		"list_name":       request.ListName,
	}).Info("confirmation email sent")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
