package middlewarectx

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/ratelimit"
)

// Заголовки ограничения частоты.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Limiter проверяет запрос клиента по всем уровням лимитов.
type Limiter interface {
	Allow(ctx context.Context, ip string) (ratelimit.Decision, error)
}

// RateLimitMiddleware ограничивает частоту запросов группы маршрутов group.
// При nil-лимитере или его ошибке запрос пропускается.
func RateLimitMiddleware(log *slog.Logger, limiter Limiter, m *metrics.Metrics, group string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			const op = "middlewarectx.RateLimit"
			log := log.With(
				slog.String("op", op),
				slog.String("group", group),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			d, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, d.Result)
			if d.Success {
				next.ServeHTTP(w, r)
				return
			}

			m.RateLimited.WithLabelValues(group, d.Tier).Inc()
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfter(d.Reset, time.Now())))
			log.Warn("rate limit exceeded", slog.String("tier", d.Tier))

			if d.Tier == ratelimit.TierGlobal {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error(apperr.CodeUnavailable, "service is temporarily busy, please try again later"))
				return
			}
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error(apperr.CodeRateLimited, "too many requests, please try again later"))
		})
	}
}

func setHeaders(w http.ResponseWriter, res ratelimit.Result) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(res.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(res.Reset.Unix(), 10))
}

// retryAfter возвращает число секунд до сброса окна, не меньше одной.
func retryAfter(reset, now time.Time) int {
	secs := int(math.Ceil(reset.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
