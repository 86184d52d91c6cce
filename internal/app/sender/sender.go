// Package sender собирает приложение доставки писем: потребителей очередей
// уведомлений, рендеринг шаблонов и почтовый транспорт.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fund-newsletter/internal/config"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/mail"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/fund-newsletter/internal/services/sender"
)

// Провайдеры почты.
const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

// App представляет приложение отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	server        *http.Server
	workers       int
	logger        *slog.Logger
}

// New подключается к брокеру и выбирает почтовый транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	mailer, err := newMailer(ctx, cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	renderer, err := senderservice.NewRenderer(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.ConsumerWorkers, rabbitmq.NewsletterQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	senderService := senderservice.NewSenderService(logger, mailer, renderer, cfg.SendRatePerSec, cfg.SendBurst, m)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		server: &http.Server{
			Addr:              cfg.AddressHTTP,
			Handler:           router,
			ReadHeaderTimeout: cfg.TimeoutHTTP,
		},
		workers: cfg.ConsumerWorkers,
		logger:  logger,
	}, nil
}

func newMailer(ctx context.Context, cfg config.Mail, logger *slog.Logger) (mail.Mailer, error) {
	from := mail.Sender{Email: cfg.FromEmail, Name: cfg.FromName, ReplyTo: cfg.ReplyTo}
	if from.Email == "" {
		return nil, errors.New("mail.from_email is not set")
	}
	switch cfg.MailProvider {
	case ProviderSMTP, "":
		return mail.NewSMTPMailer(mail.NewTransport(cfg, logger), from, logger), nil
	case ProviderSES:
		client, err := mail.NewSESClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mail.NewSESMailer(client, from, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

// Run читает очереди до отмены ctx, затем дожидается текущих писем и
// закрывает подключения.
func (a *App) Run(ctx context.Context) error {
	var waits []func()
	for _, q := range rabbitmq.NewsletterQueues() {
		wait, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, a.workers, a.senderService.HandleMessage)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		waits = append(waits, wait)
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}
	for _, wait := range waits {
		wait()
	}
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
