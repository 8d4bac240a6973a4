package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"learnearnzone-service/internal/domain"
)

const (
	// Exchange is the topic exchange completion events are published to.
	Exchange = "rewards.events"
	// QuizCompletedKey is the routing key of quiz completion events.
	QuizCompletedKey = "quiz.completed"
)

// Publisher sends reward events to RabbitMQ. A Publisher built from an
// empty URL is disabled and drops every event.
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	enabled bool
	logger  *slog.Logger
}

func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if url == "" {
		logger.Warn("rabbitmq url is empty, event publishing is disabled")
		return &Publisher{logger: logger}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	logger.Info("event publisher ready", "exchange", Exchange)
	return &Publisher{conn: conn, channel: channel, enabled: true, logger: logger}, nil
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) PublishQuizCompleted(ctx context.Context, event domain.QuizCompletedEvent) error {
	if !p.enabled {
		p.logger.Debug("event publishing disabled, skipping", "event", QuizCompletedKey, "quiz", event.QuizID)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		Exchange,         // exchange
		QuizCompletedKey, // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers: amqp091.Table{
				"event_type": QuizCompletedKey,
				"member_id":  event.MemberID,
				"quiz_id":    event.QuizID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Warn("close rabbitmq channel", "err", err)
	}
	return p.conn.Close()
}
