// Package sendarticle реализует административную рассылку статьи
// (POST /newsletter/send-article).
//
// Маршрут защищён API-ключом. dryRun возвращает только число получателей,
// testEmail отправляет статью на один адрес.
package sendarticle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/broadcast"
)

const maxBodyBytes = 64 << 10

// Request тело запроса рассылки.
type Request struct {
	Article   *models.Article `json:"article" validate:"required"`
	TestEmail string          `json:"testEmail,omitempty" validate:"omitempty,email"`
	DryRun    bool            `json:"dryRun,omitempty"`
}

// Service описывает интерфейс рассылки статей.
type Service interface {
	Send(ctx context.Context, req broadcast.Request) (*broadcast.Result, error)
}

// Handler отвечает на POST /newsletter/send-article.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Разослать статью подписчикам
// @Description Ставит в очередь письмо о статье каждому активному подписчику.
// @Tags Newsletter
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param request body Request true "Статья и параметры рассылки"
// @Success 200 {object} response.Response "Рассылка поставлена в очередь"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверный API-ключ"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /newsletter/send-article [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.sendarticle"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Warn("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(apperr.CodeInvalidRequest, "invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.FromError(w, r, log, err)
		return
	}

	res, err := h.service.Send(r.Context(), broadcast.Request{
		Article:   *req.Article,
		TestEmail: req.TestEmail,
		DryRun:    req.DryRun,
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	msg := "Article queued for delivery"
	if res.DryRun {
		msg = "Dry run completed"
	}
	log.Info("article broadcast processed",
		slog.String("slug", req.Article.Slug),
		slog.Int("total", res.Total),
		slog.Int("queued", res.Queued),
		slog.Bool("dry_run", res.DryRun),
	)
	render.JSON(w, r, response.OK(res, msg))
}
