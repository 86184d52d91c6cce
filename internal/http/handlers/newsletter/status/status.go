// Package status реализует HTTP-обработчик проверки статуса подписки.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

// Service описывает интерфейс бизнес-логики проверки статуса.
type Service interface {
	Status(ctx context.Context, in newsletter.StatusInput) (*newsletter.StatusView, error)
}

// Handler отвечает на GET /newsletter/subscribe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает статус подписки адреса. Требует токен отписки или API-ключ, если публичная проверка выключена.
// @Tags Newsletter
// @Produce  json
// @Param email query string true "Адрес"
// @Param token query string false "Токен отписки"
// @Success 200 {object} response.Response "Статус подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректный адрес"
// @Failure 403 {object} response.ErrorResponse "Нет права на проверку статуса"
// @Router /newsletter/subscribe [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	view, err := h.service.Status(r.Context(), newsletter.StatusInput{
		Email:      q.Get("email"),
		Token:      q.Get("token"),
		Authorized: middlewarectx.IsAdmin(r.Context()),
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(view, ""))
}
