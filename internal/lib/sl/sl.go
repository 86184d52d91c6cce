// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога:
// ошибок, адресов электронной почты и окружения, в котором запущен сервис.
package sl

import (
	"log/slog"
	"os"
	"strings"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Email возвращает slog.Attr с адресом, в котором скрыта большая часть
// локальной части. Полные адреса подписчиков в логи не попадают.
func Email(email string) slog.Attr {
	return slog.String("email", RedactEmail(email))
}

// RedactEmail оставляет первые два символа локальной части и домен.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

// SetupLogger создаёт логгер в зависимости от окружения:
// local: текстовый вывод с уровнем debug, dev: JSON с уровнем debug,
// prod и всё остальное: JSON с уровнем info.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
