// Package middlewarectx содержит HTTP middleware рассылки: ограничение
// частоты запросов, проверку административного ключа и CSRF-токенов.
package middlewarectx

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Admin ключ контекста, под которым хранится признак административного запроса.
const Admin Key = "admin"

// IsAdmin сообщает, подписан ли запрос валидным административным ключом.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(Admin).(bool)
	return ok
}

// ClientIP возвращает IP-адрес клиента. Заголовки прокси учитывает
// chi middleware.RealIP, который подставляет адрес в RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
