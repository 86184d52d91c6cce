// Package remove реализует HTTP-обработчик отписки по адресу
// (DELETE /newsletter/subscribe).
//
// Адрес и токен принимаются в JSON-теле или в параметрах запроса. Без
// токена отписка разрешена только с административным ключом. Ответ не
// раскрывает, был ли адрес подписан.
package remove

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

const maxBodyBytes = 16 << 10

// Request тело запроса отписки.
type Request struct {
	Email string `json:"email" example:"john.doe@example.com"`
	Token string `json:"token,omitempty"`
}

// Service описывает интерфейс бизнес-логики отписки.
type Service interface {
	Unsubscribe(ctx context.Context, in newsletter.UnsubscribeInput) (*newsletter.UnsubscribeResult, error)
}

// Handler отвечает на DELETE /newsletter/subscribe.
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
// @Summary Отписаться по адресу
// @Description Переводит подписчика в статус unsubscribed. Требует токен отписки или API-ключ.
// @Tags Newsletter
// @Accept  json
// @Produce  json
// @Param request body Request false "Адрес и токен"
// @Success 200 {object} response.Response "Отписка выполнена"
// @Failure 400 {object} response.ErrorResponse "Некорректный адрес"
// @Failure 403 {object} response.ErrorResponse "Неверный токен"
// @Router /newsletter/subscribe [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(apperr.CodeInvalidRequest, "invalid request body"))
		return
	}
	q := r.URL.Query()
	if req.Email == "" {
		req.Email = q.Get("email")
	}
	if req.Token == "" {
		req.Token = q.Get("token")
	}

	res, err := h.service.Unsubscribe(r.Context(), newsletter.UnsubscribeInput{
		Email:      req.Email,
		Token:      req.Token,
		Authorized: middlewarectx.IsAdmin(r.Context()),
		IP:         middlewarectx.ClientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(res, res.Message))
}
