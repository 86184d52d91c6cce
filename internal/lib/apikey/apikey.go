// Package apikey проверяет административный API-ключ.
//
// В конфиге хранится только bcrypt-хеш ключа, поэтому утечка конфига
// не раскрывает сам ключ.
package apikey

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier сравнивает переданный ключ с bcrypt-хешем.
type Verifier struct {
	hash []byte
}

// NewVerifier создаёт Verifier. Пустой хеш означает, что административные
// операции отключены и любой ключ отклоняется.
func NewVerifier(hash string) *Verifier {
	return &Verifier{hash: []byte(hash)}
}

// Valid сообщает, совпадает ли key с хешем.
func (v *Verifier) Valid(key string) bool {
	if len(v.hash) == 0 || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(key)) == nil
}

// Hash возвращает bcrypt-хеш ключа для записи в конфиг.
func Hash(key string) (string, error) {
	const op = "apikey.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}
