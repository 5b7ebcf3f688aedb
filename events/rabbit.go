package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher writes order events to a durable topic exchange with
// publisher confirms.
type RabbitPublisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishes
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher declares the exchange and switches the channel into
// confirm mode.
func NewRabbitPublisher(ch *amqp.Channel, exchange string) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		MessageId:    fmt.Sprintf("%s:%s", ev.OrderNumber, ev.Status),
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	conf, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, ev.RoutingKey(), false, false, pub)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	ok, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm: %w", err)
	}
	if !ok {
		return fmt.Errorf("publish %s: broker nacked", ev.RoutingKey())
	}
	return nil
}
