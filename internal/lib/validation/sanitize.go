// Package validation содержит чистые функции очистки и проверки пользовательского
// ввода формы подписки: имени и адреса электронной почты.
//
// Функции не имеют скрытого состояния и не зависят от HTTP-слоя, поэтому
// результат определяется только входной строкой.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Максимальные длины полей после очистки.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
)

// zeroWidth невидимые символы, которые используются для обхода фильтров.
var zeroWidth = map[rune]struct{}{
	'\u00AD': {}, // soft hyphen
	'\u180E': {},
	'\u200B': {},
	'\u200C': {},
	'\u200D': {},
	'\u200E': {},
	'\u200F': {},
	'\u202A': {},
	'\u202B': {},
	'\u202C': {},
	'\u202D': {},
	'\u202E': {},
	'\u2060': {},
	'\u2061': {},
	'\u2062': {},
	'\u2063': {},
	'\u2064': {},
	'\uFEFF': {},
}

// Sanitize удаляет управляющие символы и символы нулевой ширины,
// обрезает пробелы по краям и ограничивает длину limit рунами.
func Sanitize(s string, limit int) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if _, ok := zeroWidth[r]; ok {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if limit > 0 && utf8.RuneCountInString(out) > limit {
		out = strings.TrimSpace(string([]rune(out)[:limit]))
	}
	return out
}

// SanitizeEmail очищает адрес и приводит его к нижнему регистру.
func SanitizeEmail(email string) string {
	return strings.ToLower(Sanitize(email, MaxEmailLength))
}

// SanitizeName очищает отображаемое имя.
func SanitizeName(name string) string {
	return Sanitize(name, MaxNameLength)
}
