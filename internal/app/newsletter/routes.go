// Package newsletter собирает HTTP API рассылки: маршруты, middleware и
// зависимости сервиса.
package newsletter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/health"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/csrf"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/remove"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/sendarticle"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/status"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/subscribe"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/handlers/newsletter/unsubscribe"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	newsletterservice "github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

// NewsletterService объединяет операции жизненного цикла подписки.
type NewsletterService interface {
	Subscribe(ctx context.Context, in newsletterservice.SubscribeInput) (*newsletterservice.SubscribeResult, error)
	Status(ctx context.Context, in newsletterservice.StatusInput) (*newsletterservice.StatusView, error)
	Unsubscribe(ctx context.Context, in newsletterservice.UnsubscribeInput) (*newsletterservice.UnsubscribeResult, error)
}

// CSRF выпускает и проверяет CSRF-токены.
type CSRF interface {
	csrf.Issuer
	middlewarectx.CSRFVerifier
}

// Deps зависимости маршрутов.
type Deps struct {
	Newsletter NewsletterService
	Broadcast  sendarticle.Service
	APIKey     middlewarectx.KeyVerifier
	CSRF       CSRF
	IPHasher   middlewarectx.IPHasher
	// SubscribeLimiter и UnsubscribeLimiter равны nil, если ограничение выключено.
	SubscribeLimiter   middlewarectx.Limiter
	UnsubscribeLimiter middlewarectx.Limiter
	Metrics            *metrics.Metrics
	Health             map[string]health.Pinger

	AllowedOrigins []string
	RequireCSRF    bool
	RequestTimeout time.Duration
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", middlewarectx.HeaderAPIKey, middlewarectx.HeaderCSRF},
			ExposedHeaders: []string{
				middlewarectx.HeaderCSRF,
				middlewarectx.HeaderLimit,
				middlewarectx.HeaderRemaining,
				middlewarectx.HeaderReset,
				middlewarectx.HeaderRetryAfter,
			},
			MaxAge: 300,
		}),
	)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	r.Route("/newsletter", func(r chi.Router) {
		r.Route("/subscribe", func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, deps.SubscribeLimiter, deps.Metrics, "subscribe"))
			r.Use(middlewarectx.APIKeyMiddleware(logger, deps.APIKey, false))
			if deps.RequireCSRF {
				r.Use(middlewarectx.CSRFMiddleware(logger, deps.CSRF, deps.IPHasher))
			}
			r.Post("/", subscribe.New(logger, deps.Newsletter).ServeHTTP)
			r.Get("/", status.New(logger, deps.Newsletter).ServeHTTP)
			r.Delete("/", remove.New(logger, deps.Newsletter).ServeHTTP)
			r.Options("/", csrf.New(logger, deps.CSRF, deps.IPHasher).ServeHTTP)
		})

		r.Route("/unsubscribe", func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, deps.UnsubscribeLimiter, deps.Metrics, "unsubscribe"))
			h := unsubscribe.New(logger, deps.Newsletter)
			r.Get("/", h.ServeHTTP)
			r.Post("/", h.ServeHTTP)
		})

		// Административные конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.APIKeyMiddleware(logger, deps.APIKey, true))
			r.Post("/send-article", sendarticle.New(logger, deps.Broadcast).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, deps.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
