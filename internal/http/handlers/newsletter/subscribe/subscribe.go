// Package subscribe реализует HTTP-обработчик подписки на рассылку.
//
// Handler принимает JSON с именем, адресом и источником подписки, проверяет
// структуру запроса и передаёт его сервису рассылки. Повторная подписка
// активного адреса возвращает 200 с флагом isExistingSubscriber.
package subscribe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 16 << 10

// Request тело запроса подписки.
type Request struct {
	Name   string `json:"name" validate:"required" example:"John Doe"`
	Email  string `json:"email" validate:"required" example:"john.doe@example.com"`
	Source string `json:"source,omitempty" example:"footer"`
}

// Service описывает интерфейс бизнес-логики подписки.
type Service interface {
	Subscribe(ctx context.Context, in newsletter.SubscribeInput) (*newsletter.SubscribeResult, error)
}

// Handler управляет HTTP-запросами на подписку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подписаться на рассылку
// @Description Создаёт подписчика или возвращает отписавшегося в статус active.
// @Tags Newsletter
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные подписчика"
// @Success 200 {object} response.Response "Подписка оформлена"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Неверный CSRF-токен"
// @Failure 429 {object} response.ErrorResponse "Превышен лимит запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /newsletter/subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.newsletter.subscribe"
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

	res, err := h.service.Subscribe(r.Context(), newsletter.SubscribeInput{
		Name:      req.Name,
		Email:     req.Email,
		Source:    req.Source,
		IP:        middlewarectx.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("subscription processed",
		slog.String("id", res.SubscriptionID),
		slog.Bool("existing", res.IsExistingSubscriber),
		slog.Bool("resubscription", res.IsResubscription),
	)
	render.JSON(w, r, response.OK(res, res.Message))
}
