// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии
// рассылки, публикацию уведомлений и их потребление.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытку до retries раз с паузой delay.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var conn *amqp.Connection
	var err error

	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if attempt == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
