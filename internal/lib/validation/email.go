package validation

import (
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
)

const (
	maxLocalPartLength = 64
	maxDomainLength    = 253
)

var validate = validator.New()

// EmailResult результат проверки адреса.
// Suggestion заполняется, если домен похож на опечатку в адресе популярного
// почтового сервиса; адрес при этом остаётся допустимым.
type EmailResult struct {
	Valid      bool   `json:"valid"`
	Code       string `json:"code,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Err возвращает ошибку валидации для недопустимого адреса или nil.
func (r EmailResult) Err() *apperr.Error {
	if r.Valid {
		return nil
	}
	return apperr.Validation(r.Code, r.Reason)
}

func invalid(code, reason string) EmailResult {
	return EmailResult{Code: code, Reason: reason}
}

// ValidateEmail проверяет очищенный адрес электронной почты.
func ValidateEmail(email string) EmailResult {
	if email == "" {
		return invalid(apperr.CodeInvalidEmail, "email is required")
	}
	if len(email) > MaxEmailLength {
		return invalid(apperr.CodeInvalidEmail, "email is too long")
	}
	if ContainsSuspiciousPattern(email) {
		return invalid(apperr.CodeSuspiciousInput, "email contains invalid content")
	}
	if strings.Count(email, "@") != 1 {
		return invalid(apperr.CodeInvalidEmail, "invalid email format")
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || len(local) > maxLocalPartLength {
		return invalid(apperr.CodeInvalidEmail, "invalid email local part")
	}
	if domain == "" || len(domain) > maxDomainLength {
		return invalid(apperr.CodeInvalidEmail, "invalid email domain")
	}
	if strings.Contains(email, "..") {
		return invalid(apperr.CodeInvalidEmail, "email cannot contain consecutive dots")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid(apperr.CodeInvalidEmail, "email cannot start or end with a dot")
	}
	if !hasTLD(domain) {
		return invalid(apperr.CodeInvalidEmail, "invalid email domain")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return invalid(apperr.CodeInvalidEmail, "invalid email format")
	}
	if IsDisposableDomain(domain) {
		return invalid(apperr.CodeDisposableEmail, "disposable email addresses are not allowed")
	}
	return EmailResult{Valid: true, Suggestion: SuggestEmail(email)}
}

func hasTLD(domain string) bool {
	i := strings.LastIndexByte(domain, '.')
	if i <= 0 {
		return false
	}
	tld := domain[i+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

var disposableDomains = map[string]struct{}{
	"10minutemail.com":      {},
	"20minutemail.com":      {},
	"33mail.com":            {},
	"burnermail.io":         {},
	"discard.email":         {},
	"dispostable.com":       {},
	"emailfake.com":         {},
	"emailondeck.com":       {},
	"fakeinbox.com":         {},
	"fakemailgenerator.com": {},
	"getairmail.com":        {},
	"getnada.com":           {},
	"grr.la":                {},
	"guerrillamail.com":     {},
	"guerrillamail.net":     {},
	"guerrillamail.org":     {},
	"inboxkitten.com":       {},
	"mailcatch.com":         {},
	"maildrop.cc":           {},
	"mailinator.com":        {},
	"mailnesia.com":         {},
	"mailpoof.com":          {},
	"mintemail.com":         {},
	"moakt.com":             {},
	"mohmal.com":            {},
	"mytemp.email":          {},
	"sharklasers.com":       {},
	"spam4.me":              {},
	"spambox.us":            {},
	"spamgourmet.com":       {},
	"tempail.com":           {},
	"tempinbox.com":         {},
	"tempmail.com":          {},
	"temp-mail.org":         {},
	"tempr.email":           {},
	"throwawaymail.com":     {},
	"tmpmail.org":           {},
	"trashmail.com":         {},
	"trbvm.com":             {},
	"yopmail.com":           {},
}

// IsDisposableDomain сообщает, относится ли домен (или его родительский домен)
// к сервисам одноразовых адресов.
func IsDisposableDomain(domain string) bool {
	domain = strings.ToLower(domain)
	for {
		if _, ok := disposableDomains[domain]; ok {
			return true
		}
		i := strings.IndexByte(domain, '.')
		if i < 0 || i == len(domain)-1 {
			return false
		}
		domain = domain[i+1:]
	}
}

var domainTypos = map[string]string{
	"gmial.com":     "gmail.com",
	"gmai.com":      "gmail.com",
	"gmal.com":      "gmail.com",
	"gamil.com":     "gmail.com",
	"gnail.com":     "gmail.com",
	"gmaill.com":    "gmail.com",
	"gmail.co":      "gmail.com",
	"gmail.cm":      "gmail.com",
	"yahooo.com":    "yahoo.com",
	"yaho.com":      "yahoo.com",
	"yahoo.co":      "yahoo.com",
	"yhoo.com":      "yahoo.com",
	"hotmial.com":   "hotmail.com",
	"hotmal.com":    "hotmail.com",
	"hotmai.com":    "hotmail.com",
	"hotmail.co":    "hotmail.com",
	"hotmil.com":    "hotmail.com",
	"outlok.com":    "outlook.com",
	"outloo.com":    "outlook.com",
	"outlook.co":    "outlook.com",
	"otulook.com":   "outlook.com",
	"iclod.com":     "icloud.com",
	"icoud.com":     "icloud.com",
	"icloud.co":     "icloud.com",
	"protonmal.com": "protonmail.com",
	"protonmai.com": "protonmail.com",
}

var tldTypos = map[string]string{
	".con":  ".com",
	".cmo":  ".com",
	".ocm":  ".com",
	".vom":  ".com",
	".comm": ".com",
}

// SuggestEmail возвращает исправленный адрес для частых опечаток в домене
// или пустую строку.
func SuggestEmail(email string) string {
	local, domain, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok || local == "" || domain == "" {
		return ""
	}
	if fixed, ok := domainTypos[domain]; ok {
		return local + "@" + fixed
	}
	for wrong, right := range tldTypos {
		if strings.HasSuffix(domain, wrong) {
			base := strings.TrimSuffix(domain, wrong) + right
			if fixed, ok := domainTypos[base]; ok {
				base = fixed
			}
			return local + "@" + base
		}
	}
	return ""
}
