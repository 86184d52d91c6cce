package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// Exchange direct-обменник рассылки.
const Exchange = "newsletter"

// Очереди и ключи маршрутизации.
const (
	QueueTransactional      = "newsletter.transactional"
	QueueArticle            = "newsletter.article"
	RoutingKeyTransactional = "transactional"
	RoutingKeyArticle       = "article"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NewsletterQueues возвращает очереди рассылки: письма по действиям
// подписчика отделены от массовых рассылок статей, чтобы рассылка
// не задерживала приветственные письма.
func NewsletterQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueTransactional, RoutingKey: RoutingKeyTransactional},
		{QueueName: QueueArticle, RoutingKey: RoutingKeyArticle},
	}
}

// RoutingKeyFor возвращает ключ маршрутизации для вида уведомления.
func RoutingKeyFor(kind models.NotificationKind) string {
	if kind == models.NotificationArticle {
		return RoutingKeyArticle
	}
	return RoutingKeyTransactional
}

// SetupChannel открывает канал, объявляет обменник и очереди и связывает их.
func SetupChannel(conn *amqp.Connection, prefetch int, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
		}
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			Exchange,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
