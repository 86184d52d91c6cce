// Package apperr описывает типизированные ошибки уровня бизнес-логики.
//
// Каждая ошибка несёт вид (Kind), машиночитаемый код и сообщение для клиента.
// HTTP-слой по виду ошибки выбирает статус ответа, а для ошибок зависимостей
// отдаёт обобщённое сообщение без деталей реализации.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind категория ошибки.
type Kind int

const (
	// KindInternal неизвестная ошибка.
	KindInternal Kind = iota
	// KindValidation некорректный или небезопасный ввод.
	KindValidation
	// KindRateLimit превышен лимит запросов с одного адреса.
	KindRateLimit
	// KindUnavailable превышен глобальный лимит, сервис временно недоступен.
	KindUnavailable
	// KindAuth отсутствует или неверен API-ключ.
	KindAuth
	// KindForbidden неверный токен отписки или CSRF-токен.
	KindForbidden
	// KindNotFound подписчик или токен не найден.
	KindNotFound
	// KindDependency отказ хранилища, кеша или почтового сервиса.
	KindDependency
	// KindTimeout истекло время ожидания.
	KindTimeout
)

// Коды ошибок, которые видит клиент.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidName     = "INVALID_NAME"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeDisposableEmail = "DISPOSABLE_EMAIL"
	CodeSuspiciousInput = "SUSPICIOUS_INPUT"
	CodeInvalidSource   = "INVALID_SOURCE"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeInvalidCSRF     = "INVALID_CSRF_TOKEN"
	CodeStatusForbidden = "STATUS_CHECK_FORBIDDEN"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
	CodeTimeout         = "REQUEST_TIMEOUT"
)

// Error ошибка с видом, кодом и сообщением.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation создаёт ошибку валидации.
func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// Forbidden создаёт ошибку доступа.
func Forbidden(code, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

// Unauthorized создаёт ошибку аутентификации.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindAuth, Code: CodeUnauthorized, Message: msg}
}

// NotFound создаёт ошибку отсутствия сущности.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

// Dependency оборачивает отказ внешней зависимости. Если причина —
// истёкший контекст, ошибка становится KindTimeout.
func Dependency(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Code: CodeTimeout, Message: "request timed out", Err: fmt.Errorf("%s: %w", op, err)}
	}
	return &Error{Kind: KindDependency, Code: CodeInternal, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// From достаёт *Error из цепочки. Неизвестные ошибки становятся KindInternal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Code: CodeTimeout, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// HTTPStatus возвращает HTTP-статус для вида ошибки.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindDependency:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Public сообщает, можно ли показывать сообщение ошибки клиенту.
func (k Kind) Public() bool {
	return k != KindInternal && k != KindDependency && k != KindTimeout
}
