package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// HeaderCSRF заголовок CSRF-токена.
const HeaderCSRF = "X-CSRF-Token"

// CSRFVerifier проверяет CSRF-токен клиента.
type CSRFVerifier interface {
	Verify(token, client string) error
}

// IPHasher хеширует IP-адрес клиента.
type IPHasher interface {
	Hash(ip string) string
}

// CSRFMiddleware требует валидный X-CSRF-Token для POST и DELETE.
// Токен привязан к хешу IP-адреса клиента. Административные запросы
// проверку не проходят.
func CSRFMiddleware(log *slog.Logger, verifier CSRFVerifier, hasher IPHasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method != http.MethodPost && r.Method != http.MethodDelete) || IsAdmin(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			const op = "middlewarectx.CSRF"

			err := verifier.Verify(r.Header.Get(HeaderCSRF), hasher.Hash(ClientIP(r)))
			if err != nil {
				log.Warn("csrf check failed",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(apperr.CodeInvalidCSRF, "invalid or missing csrf token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
