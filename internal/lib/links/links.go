// Package links строит публичные ссылки рассылки.
package links

import (
	"net/url"
	"strings"
)

// UnsubscribePath путь страницы отписки.
const UnsubscribePath = "/newsletter/unsubscribe"

// Unsubscribe возвращает ссылку отписки для адреса email с токеном tok.
func Unsubscribe(baseURL, email, tok string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", tok)
	return strings.TrimRight(baseURL, "/") + UnsubscribePath + "?" + q.Encode()
}

// Resubscribe возвращает ссылку на форму подписки.
func Resubscribe(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/newsletter"
}
