// Package csrf выпускает и проверяет CSRF-токены формы подписки.
//
// Токен представляет собой JWT (HS256) с назначением newsletter-csrf и хешем IP-адреса клиента.
// Клиент получает его запросом OPTIONS и передаёт в заголовке X-CSRF-Token.
package csrf

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose значение claim purpose в CSRF-токене.
const Purpose = "newsletter-csrf"

// ErrInvalidToken возвращается для любого непрошедшего проверку токена.
var ErrInvalidToken = errors.New("invalid csrf token")

// Claims описывает данные CSRF-токена.
type Claims struct {
	Purpose string `json:"purpose"`
	Client  string `json:"client,omitempty"` // хеш IP-адреса клиента
	jwt.RegisteredClaims
}

// Maker выпускает и проверяет CSRF-токены.
type Maker struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewMaker создаёт Maker на основе секретного ключа и TTL.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// Issue выпускает токен для клиента client и возвращает его вместе со временем истечения.
func (m *Maker) Issue(client string) (string, time.Time, error) {
	const op = "csrf.Issue"
	now := m.now()
	expires := now.Add(m.tokenTTL)
	claims := Claims{
		Purpose: Purpose,
		Client:  client,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expires, nil
}

// Verify проверяет подпись, срок действия, назначение и привязку к клиенту.
func (m *Maker) Verify(tokenStr, client string) error {
	if tokenStr == "" {
		return ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.Purpose != Purpose {
		return ErrInvalidToken
	}
	if claims.Client != "" && claims.Client != client {
		return ErrInvalidToken
	}
	return nil
}
