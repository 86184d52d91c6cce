package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// channel часть *amqp.Channel, нужная для публикации.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует уведомления в обменник рассылки.
// Канал AMQP не допускает конкурентной публикации, поэтому вызовы сериализуются.
type Publisher struct {
	mu       sync.Mutex
	ch       channel
	exchange string
}

// NewPublisher создаёт Publisher поверх канала ch.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch, exchange: Exchange}
}

// PublishMessage сериализует message в JSON и публикует его с ключом routingKey.
func (p *Publisher) PublishMessage(ctx context.Context, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishNotification публикует уведомление в очередь, соответствующую его виду.
func (p *Publisher) PublishNotification(ctx context.Context, n models.Notification) error {
	return p.PublishMessage(ctx, RoutingKeyFor(n.Kind), n)
}
