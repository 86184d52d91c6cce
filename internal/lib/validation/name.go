package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
)

const (
	minNameLength = 2
	// maxRepeat максимальная длина серии одинаковых символов.
	maxRepeat = 4
)

var nameCharset = regexp.MustCompile(`^[\p{Latin}\p{M} '.\-]+$`)

// ValidateName проверяет очищенное имя подписчика. Возвращает nil, если имя
// допустимо.
func ValidateName(name string) *apperr.Error {
	if name == "" {
		return apperr.Validation(apperr.CodeInvalidName, "name is required")
	}
	if ContainsSuspiciousPattern(name) {
		return apperr.Validation(apperr.CodeSuspiciousInput, "name contains invalid content")
	}
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > MaxNameLength {
		return apperr.Validation(apperr.CodeInvalidName, "name must be between 2 and 100 characters")
	}
	if !nameCharset.MatchString(name) {
		return apperr.Validation(apperr.CodeInvalidName, "name can contain only letters, spaces, hyphens, apostrophes and periods")
	}
	if hasExcessiveRepetition(name, maxRepeat) {
		return apperr.Validation(apperr.CodeInvalidName, "name contains too many repeated characters")
	}
	return nil
}

func hasExcessiveRepetition(s string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run > limit {
			return true
		}
	}
	return false
}
