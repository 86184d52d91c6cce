// Package cache реализует кеш поверх Redis: значения хранятся в JSON
// с временем жизни. Отсутствие ключа не является ошибкой.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/fund-newsletter/internal/config"
)

const (
	statusPrefix          = "newsletter:status:"
	emailValidationPrefix = "newsletter:email-validation:"
)

// StatusKey возвращает ключ кеша статуса подписчика.
func StatusKey(email string) string {
	return statusPrefix + email
}

// EmailValidationKey возвращает ключ кеша результата проверки адреса.
func EmailValidationKey(email string) string {
	return emailValidationPrefix + email
}

// Cache хранит клиент Redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		Username:     cfg.RedisUser,
		MaxRetries:   cfg.RedisMaxRetries,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisTimeoutRedis,
		WriteTimeout: cfg.RedisTimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение key в result. found=false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет value под ключом key на время expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// Close закрывает соединение.
func (c *Cache) Close() error {
	return c.Db.Close()
}
