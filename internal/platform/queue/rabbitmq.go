package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, queueName string, message any) error
	Close()
}

// Handler processes one delivery. A nil error acks it, anything else nacks
// it without requeue.
type Handler func(ctx context.Context, body []byte) error

type Consumer interface {
	Consume(ctx context.Context, queueName string, handler Handler) error
	Close()
}

type rabbitConn struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dial(url string, queues []string) (*rabbitConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	for _, name := range queues {
		_, err = ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &rabbitConn{conn: conn, channel: ch}, nil
}

func (r *rabbitConn) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

type rabbitPublisher struct {
	*rabbitConn
}

// NewRabbitPublisher connects and declares the given durable queues.
func NewRabbitPublisher(url string, queues ...string) (Publisher, error) {
	rc, err := dial(url, queues)
	if err != nil {
		return nil, err
	}
	return &rabbitPublisher{rabbitConn: rc}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, queueName string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

type rabbitConsumer struct {
	*rabbitConn
	log logrus.FieldLogger
}

func NewRabbitConsumer(url string, log logrus.FieldLogger, queues ...string) (Consumer, error) {
	rc, err := dial(url, queues)
	if err != nil {
		return nil, err
	}
	if err := rc.channel.Qos(10, 0, false); err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	return &rabbitConsumer{rabbitConn: rc, log: log}, nil
}

// Consume registers handler and processes deliveries until ctx is cancelled
// or the channel closes.
func (c *rabbitConsumer) Consume(ctx context.Context, queueName string, handler Handler) error {
	msgs, err := c.channel.Consume(
		queueName,
		"",    // consumer
		false, // manual acks
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queueName)
			}
			if err := handler(ctx, d.Body); err != nil {
				c.log.WithError(err).WithField("queue", queueName).Error("failed to process message")
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}
