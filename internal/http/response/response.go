// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков рассылки.
//
// Успешный ответ: {"success":true,"data":{…},"message":"…"}.
// Ответ с ошибкой: {"success":false,"error":"CODE","message":"…"}.
package response

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"INVALID_EMAIL"`
	Message string `json:"message" example:"invalid email format"`
}

// OK возвращает успешный Response с данными и сообщением.
func OK(data any, msg string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: msg,
	}
}

// Error возвращает Response с машиночитаемым кодом и сообщением.
func Error(code, msg string) Response {
	return Response{
		Error:   code,
		Message: msg,
	}
}

// ValidationError формирует ответ INVALID_REQUEST по ошибкам валидатора.
// Нарушения объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid URL", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(apperr.CodeInvalidRequest, strings.Join(errsMsgs, ", "))
}

// FromError пишет ответ по ошибке сервиса. Ошибки зависимостей и
// неизвестные ошибки логируются целиком, а клиент получает обобщённое
// сообщение.
func FromError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	ae := apperr.From(err)
	status := ae.Kind.HTTPStatus()
	if ae.Kind.Public() {
		log.Info("request rejected", slog.String("code", ae.Code), slog.String("reason", ae.Message))
	} else {
		log.Error("request failed", slog.String("code", ae.Code), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, Error(ae.Code, ae.Message))
}
