// Package repository реализует хранилище подписчиков рассылки и записей
// согласия на основе PostgreSQL. Подписчики никогда не удаляются:
// отписка и повторная подписка только меняют статус.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound возвращается, если подписчик с таким адресом не найден.
var ErrNotFound = errors.New("subscriber not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscribers'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("storage.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return errors.New("storage.CheckDatabaseReady: required table subscribers missing")
	}
	return nil
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}
