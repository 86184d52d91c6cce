// Package iphash хеширует IP-адреса клиентов перед сохранением.
// В хранилище и логах оказывается только ключевой BLAKE2b-хеш с солью из конфига.
package iphash

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher вычисляет хеши IP-адресов.
type Hasher struct {
	key []byte
}

// New создаёт Hasher. Соль длиннее 64 байт сначала сжимается до 32 байт,
// так как ключ BLAKE2b ограничен 64 байтами.
func New(salt string) *Hasher {
	key := []byte(salt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Hasher{key: key}
}

// Hash возвращает hex-хеш адреса или пустую строку для пустого адреса.
func (h *Hasher) Hash(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// ключ всегда не длиннее blake2b.Size
		sum := blake2b.Sum256([]byte(ip))
		return hex.EncodeToString(sum[:])
	}
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))
}
