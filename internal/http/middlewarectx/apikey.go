package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
)

// HeaderAPIKey заголовок административного ключа.
const HeaderAPIKey = "X-API-Key"

// KeyVerifier проверяет административный ключ.
type KeyVerifier interface {
	Valid(key string) bool
}

// APIKeyFromRequest достаёт ключ из X-API-Key или заголовка Authorization: Bearer.
func APIKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// APIKeyMiddleware помечает запрос как административный, если он содержит
// валидный ключ. При required запросы без валидного ключа отклоняются с 401.
func APIKeyMiddleware(log *slog.Logger, verifier KeyVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.APIKey"

			key := APIKeyFromRequest(r)
			if key != "" && verifier.Valid(key) {
				ctx := context.WithValue(r.Context(), Admin, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("missing or invalid api key",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Bool("present", key != ""),
			)
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(apperr.CodeUnauthorized, "missing or invalid api key"))
		})
	}
}
