// Package csrf реализует выдачу CSRF-токена формы подписки
// (OPTIONS /newsletter/subscribe).
package csrf

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// Issuer выпускает CSRF-токены.
type Issuer interface {
	Issue(client string) (string, time.Time, error)
}

// IPHasher хеширует IP-адрес клиента.
type IPHasher interface {
	Hash(ip string) string
}

// Token тело ответа.
type Token struct {
	CSRFToken string    `json:"csrfToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Handler выдаёт CSRF-токен, привязанный к хешу IP-адреса клиента.
type Handler struct {
	log    *slog.Logger
	issuer Issuer
	hasher IPHasher
}

// New создает новый Handler.
func New(log *slog.Logger, issuer Issuer, hasher IPHasher) *Handler {
	return &Handler{
		log:    log,
		issuer: issuer,
		hasher: hasher,
	}
}

// ServeHTTP godoc
// @Summary Получить CSRF-токен
// @Description Возвращает токен для заголовка X-CSRF-Token запросов POST и DELETE.
// @Tags Newsletter
// @Produce  json
// @Success 200 {object} response.Response "Токен"
// @Router /newsletter/subscribe [options]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.csrf"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tok, expires, err := h.issuer.Issue(h.hasher.Hash(middlewarectx.ClientIP(r)))
	if err != nil {
		log.Error("failed to issue csrf token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(apperr.CodeInternal, "internal server error"))
		return
	}

	w.Header().Set(middlewarectx.HeaderCSRF, tok)
	w.Header().Set("Allow", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, r, response.OK(Token{CSRFToken: tok, ExpiresAt: expires.UTC()}, ""))
}
