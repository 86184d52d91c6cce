package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fund-newsletter/internal/cache"
	"github.com/magabrotheeeer/fund-newsletter/internal/config"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/health"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apikey"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/csrf"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/iphash"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/token"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/migrations"
	"github.com/magabrotheeeer/fund-newsletter/internal/rabbitmq"
	"github.com/magabrotheeeer/fund-newsletter/internal/ratelimit"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/broadcast"
	newsletterservice "github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
	"github.com/magabrotheeeer/fund-newsletter/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API рассылки.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
	newsletter *newsletterservice.Service
}

// New подключает хранилище, кеш и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.newsletter.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, 0, rabbitmq.NewsletterQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	tokens := token.New(cfg.UnsubscribeSecret)
	hasher := iphash.New(cfg.IPHashSalt)
	publisher := rabbitmq.NewPublisher(ch)

	newsletterService := newsletterservice.NewService(logger, db, cacheRedis, publisher, tokens, hasher, m, newsletterservice.Options{
		SiteURL:           cfg.SiteURL,
		PublicStatusCheck: cfg.PublicStatusCheck,
		StatusTTL:         cfg.StatusTTL,
		ValidationTTL:     cfg.EmailValidationTTL,
		SideEffectTimeout: cfg.SideEffectTimeout,
	})
	broadcastService := broadcast.NewService(logger, db, publisher, tokens, m, cfg.SiteURL)

	deps := Deps{
		Newsletter:     newsletterService,
		Broadcast:      broadcastService,
		APIKey:         apikey.NewVerifier(cfg.AdminAPIKeyHash),
		CSRF:           csrf.NewMaker(cfg.CSRFSecret, cfg.CSRFTokenTTL),
		IPHasher:       hasher,
		Metrics:        m,
		Health:         map[string]health.Pinger{"postgres": db, "redis": cacheRedis},
		AllowedOrigins: cfg.AllowedOrigins,
		RequireCSRF:    cfg.RequireCSRF,
		RequestTimeout: cfg.TimeoutHTTP,
	}
	if cfg.RateLimitEnabled {
		deps.SubscribeLimiter, deps.UnsubscribeLimiter = newLimiters(cfg.RateLimit, cacheRedis)
	} else {
		logger.Warn("rate limiting is disabled")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		conn:       conn,
		ch:         ch,
		newsletter: newsletterService,
	}, nil
}

// newLimiters создаёт лимитеры групп подписки и отписки поверх общего хранилища счётчиков.
func newLimiters(cfg config.RateLimit, c *cache.Cache) (middlewarectx.Limiter, middlewarectx.Limiter) {
	var store ratelimit.Store
	if cfg.RateLimitBackend == "redis" {
		store = ratelimit.NewRedisStore(c.Db, "newsletter:ratelimit:")
	} else {
		store = ratelimit.NewMemoryStore()
	}
	tiers := ratelimit.Tiers{
		Global: ratelimit.Tier{Limit: cfg.GlobalLimit, Window: cfg.GlobalWindow},
		Normal: ratelimit.Tier{Limit: cfg.NormalLimit, Window: cfg.NormalWindow},
		Strict: ratelimit.Tier{Limit: cfg.StrictLimit, Window: cfg.StrictWindow},
	}
	return ratelimit.NewTiered(store, "subscribe", tiers), ratelimit.NewTiered(store, "unsubscribe", tiers)
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер,
// дожидается фоновых задач и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.newsletter.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
