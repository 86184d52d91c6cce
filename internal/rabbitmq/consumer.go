package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// ErrDrop сообщает потребителю, что сообщение не может быть обработано
// никогда и возвращать его в очередь нельзя.
var ErrDrop = errors.New("drop message")

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает очередь queueName и обрабатывает сообщения не более
// чем в workers горутинах. Ошибка обработчика возвращает сообщение в очередь,
// ErrDrop отбрасывает его. Возвращает функцию ожидания завершения обработки,
// которая блокируется до отмены ctx и окончания текущих обработчиков.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, workers int, handler Handler) (func(), error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return consume(ctx, log.With(slog.String("queue", queueName)), delivery, workers, handler), nil
}

func consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, workers int, handler Handler) func() {
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					handle(ctx, log, d, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return wg.Wait
}

func handle(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrDrop):
		log.Warn("dropping message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("failed to handle message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
