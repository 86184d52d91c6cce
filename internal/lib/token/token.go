// Package token реализует подписанные токены отписки от рассылки.
//
// Токен самодостаточен и не хранится отдельно: это base64url от строки
// "timestamp:signature", где signature = HMAC-SHA256(secret, email:purpose:timestamp).
// Токены старше MaxAge отклоняются независимо от корректности подписи.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	// Purpose назначение токена, входит в подписываемые данные.
	Purpose = "newsletter-unsubscribe"
	// MaxAge максимальный возраст токена.
	MaxAge = 30 * 24 * time.Hour
	// maxClockSkew допустимое опережение метки времени.
	maxClockSkew = 5 * time.Minute
)

// Service генерирует и проверяет токены отписки.
type Service struct {
	secret  []byte
	purpose string
	maxAge  time.Duration
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaxAge меняет максимальный возраст токена.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		s.maxAge = d
	}
}

// New создаёт Service с секретом secret.
func New(secret string, opts ...Option) *Service {
	s := &Service{
		secret:  []byte(secret),
		purpose: Purpose,
		maxAge:  MaxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate возвращает токен, привязанный к email и текущему времени.
func (s *Service) Generate(email string) string {
	ts := s.now().UnixMilli()
	payload := strconv.FormatInt(ts, 10) + ":" + s.sign(normalize(email), ts)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Verify проверяет, что token выпущен для email и ещё не истёк.
// Любая ошибка разбора даёт false.
func (s *Service) Verify(token, email string) bool {
	if token == "" || email == "" {
		return false
	}
	raw, err := decode(token)
	if err != nil {
		return false
	}
	tsPart, sig, ok := strings.Cut(string(raw), ":")
	if !ok || tsPart == "" || sig == "" {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil || ts <= 0 {
		return false
	}

	now := s.now()
	issued := time.UnixMilli(ts)
	if now.Sub(issued) > s.maxAge {
		return false
	}
	if issued.Sub(now) > maxClockSkew {
		return false
	}

	expected := s.sign(normalize(email), ts)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// IssuedAt возвращает время выпуска токена без проверки подписи.
func IssuedAt(token string) (time.Time, bool) {
	raw, err := decode(token)
	if err != nil {
		return time.Time{}, false
	}
	tsPart, _, ok := strings.Cut(string(raw), ":")
	if !ok {
		return time.Time{}, false
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ts), true
}

func (s *Service) sign(email string, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(email + ":" + s.purpose + ":" + strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func decode(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err == nil {
		return raw, nil
	}
	return base64.URLEncoding.DecodeString(token)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
