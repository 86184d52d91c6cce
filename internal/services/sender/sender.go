// Package sender доставляет уведомления рассылки из очереди получателям:
// разбирает сообщение, собирает письмо из шаблона и отправляет его
// с ограничением скорости.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/mail"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/rabbitmq"
)

// Mailer отправляет письмо.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// SenderService обрабатывает сообщения очередей рассылки.
type SenderService struct {
	mailer   Mailer
	renderer *Renderer
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService. ratePerSec и burst
// ограничивают частоту обращений к почтовому провайдеру.
func NewSenderService(log *slog.Logger, mailer Mailer, renderer *Renderer, ratePerSec float64, burst int, m *metrics.Metrics) *SenderService {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	if burst < 1 {
		burst = 1
	}
	return &SenderService{
		mailer:   mailer,
		renderer: renderer,
		limiter:  rate.NewLimiter(limit, burst),
		metrics:  m,
		log:      log,
	}
}

// HandleMessage обрабатывает тело сообщения очереди. Сообщения, которые
// невозможно разобрать или отрисовать, отбрасываются через rabbitmq.ErrDrop,
// ошибки отправки возвращаются для повторной доставки.
func (s *SenderService) HandleMessage(ctx context.Context, body []byte) error {
	const op = "sender.HandleMessage"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal notification", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}
	log := s.log.With(slog.String("kind", string(n.Kind)), sl.Email(n.Email))

	msg, err := s.renderer.Render(n)
	if err != nil {
		log.Error("failed to render notification", sl.Err(err))
		s.metrics.EmailsSent.WithLabelValues(string(n.Kind), "dropped").Inc()
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Error("failed to send email", sl.Err(err))
		s.metrics.EmailsSent.WithLabelValues(string(n.Kind), "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.EmailsSent.WithLabelValues(string(n.Kind), "ok").Inc()
	log.Info("email sent")
	return nil
}
