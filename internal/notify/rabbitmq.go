package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"viral_daily/internal/domain"
)

// RabbitMQ hands digests to downstream mail, chat and messaging workers.
// Each delivery method gets its own durable queue bound to the exchange
// with the method name as routing key.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

type RabbitMQConfig struct {
	URL         string
	Exchange    string
	QueuePrefix string
	Methods     []domain.DeliveryMethod
}

// QueueName returns the queue that receives digests for method.
func QueueName(prefix string, method domain.DeliveryMethod) string {
	return prefix + "." + string(method)
}

func NewRabbitMQ(cfg RabbitMQConfig, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, method := range cfg.Methods {
		q, err := ch.QueueDeclare(
			QueueName(cfg.QueuePrefix, method),
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue for %s: %w", method, err)
		}

		if err := ch.QueueBind(q.Name, string(method), cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue for %s: %w", method, err)
		}
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue_prefix", cfg.QueuePrefix,
		"methods", cfg.Methods,
	)

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

type DigestMessage struct {
	SubscriptionID string                `json:"subscription_id"`
	Method         domain.DeliveryMethod `json:"method"`
	Recipient      string                `json:"recipient"`
	Videos         []domain.Video        `json:"videos"`
	Timestamp      time.Time             `json:"timestamp"`
}

func (r *RabbitMQ) Send(ctx context.Context, d Digest) error {
	msg := DigestMessage{
		SubscriptionID: d.SubscriptionID,
		Method:         d.Method,
		Recipient:      d.Recipient,
		Videos:         d.Videos,
		Timestamp:      time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		string(d.Method),
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published digest",
		"subscription_id", d.SubscriptionID,
		"method", d.Method,
		"videos", len(d.Videos),
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

var (
	_ Sink = (*RabbitMQ)(nil)
	_ Sink = (*Telegram)(nil)
)
