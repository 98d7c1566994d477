package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

const notificationQueue = "notifications"

// AMQPConfig captures the settings for the RabbitMQ notification queue.
type AMQPConfig struct {
	URL          string
	QueueDurable bool
}

// AMQPPublisher pushes notifications onto a RabbitMQ queue so external
// consumers (email senders, websocket fan-out) can deliver them.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials RabbitMQ and declares the notification queue.
func NewAMQPPublisher(cfg AMQPConfig) (*AMQPPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(notificationQueue, cfg.QueueDurable, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish sends the notification as JSON to the notification queue.
func (p *AMQPPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, "", notificationQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   n.ID,
		Body:        body,
	})
}

// Close closes the underlying channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
