// Package unsubscribe реализует отписку по ссылке из письма
// (GET и POST /newsletter/unsubscribe).
//
// GET принимает email и token в параметрах запроса. POST дополнительно
// принимает их в JSON или в форме: почтовые клиенты отправляют форму
// List-Unsubscribe=One-Click на адрес из заголовка List-Unsubscribe.
package unsubscribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
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

// Request тело POST-запроса.
type Request struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Service описывает интерфейс бизнес-логики отписки.
type Service interface {
	Unsubscribe(ctx context.Context, in newsletter.UnsubscribeInput) (*newsletter.UnsubscribeResult, error)
}

// Handler отвечает на GET и POST /newsletter/unsubscribe.
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
// @Summary Отписка по ссылке из письма
// @Description Проверяет токен отписки и переводит подписчика в статус unsubscribed.
// @Tags Newsletter
// @Accept  json
// @Produce  json
// @Param email query string true "Адрес"
// @Param token query string true "Токен отписки"
// @Success 200 {object} response.Response "Отписка выполнена"
// @Failure 400 {object} response.ErrorResponse "Некорректный адрес"
// @Failure 403 {object} response.ErrorResponse "Неверный или просроченный токен"
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит запросов"
// @Router /newsletter/unsubscribe [get]
// @Router /newsletter/unsubscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.unsubscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, err := h.parse(w, r)
	if err != nil {
		log.Warn("failed to parse request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(apperr.CodeInvalidRequest, "invalid request body"))
		return
	}

	res, err := h.service.Unsubscribe(r.Context(), newsletter.UnsubscribeInput{
		Email:             req.Email,
		Token:             req.Token,
		IP:                middlewarectx.ClientIP(r),
		UserAgent:         r.UserAgent(),
		RequireSubscriber: true,
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(res, res.Message))
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (Request, error) {
	q := r.URL.Query()
	req := Request{Email: q.Get("email"), Token: q.Get("token")}
	if r.Method != http.MethodPost {
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body Request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
		if body.Email != "" {
			req.Email = body.Email
		}
		if body.Token != "" {
			req.Token = body.Token
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		if v := r.PostForm.Get("email"); v != "" {
			req.Email = v
		}
		if v := r.PostForm.Get("token"); v != "" {
			req.Token = v
		}
	}
	return req, nil
}
