package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/usecase"
)

const DefaultExchange = "order.events"

// RabbitProducer implements usecase.EventPublisher. Each event goes to the topic
// exchange with its type as routing key.
type RabbitProducer struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	ch       *amqp.Channel
	exchange string
}

// NewRabbitProducer declares the exchange once at startup.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := DeclareExchange(ch, exchange); err != nil {
		return nil, err
	}
	return &RabbitProducer{ch: ch, exchange: exchange}, nil
}

func DeclareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// DeclareHistoryQueue declares the durable queue feeding the history projection and
// binds it to every order event.
func DeclareHistoryQueue(ch *amqp.Channel, exchange, queue string) error {
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "order.#", exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func (p *RabbitProducer) Publish(ctx context.Context, ev domain.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    ev.At,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
