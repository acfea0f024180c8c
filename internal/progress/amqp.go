package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/kursadbilgin/wabatch/internal/domain"
)

const publishTimeout = 2 * time.Second

// AMQPPublisher forwards progress snapshots to a RabbitMQ queue so external
// monitors can follow a batch without attaching to the process.
type AMQPPublisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return &AMQPPublisher{
		conn:   conn,
		ch:     ch,
		queue:  queue,
		logger: logger,
	}, nil
}

// Observer returns a best-effort observer: publish failures are logged and
// dropped rather than stalling the batch.
func (p *AMQPPublisher) Observer() Observer {
	return func(snap domain.ProgressSnapshot) {
		if err := p.publish(snap); err != nil {
			p.logger.Warn("dropping progress snapshot",
				zap.Int("index", snap.Index),
				zap.Error(err),
			)
		}
	}
}

func (p *AMQPPublisher) publish(snap domain.ProgressSnapshot) error {
	if p == nil || p.ch == nil {
		return fmt.Errorf("publisher is not initialized")
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal progress snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish progress snapshot: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
