// Package ratelimit реализует ограничение частоты запросов по фиксированным окнам.
//
// Счётчики хранятся в Store: MemoryStore держит их в памяти процесса,
// RedisStore в Redis, чтобы несколько экземпляров сервиса делили одни лимиты.
// Tiered объединяет три уровня: глобальный, обычный на IP и строгий на IP,
// который включается только после нарушения обычного.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Counter состояние счётчика в текущем окне.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// Store хранит счётчики окон.
type Store interface {
	// Hit увеличивает счётчик key. Если окно истекло, начинается новое длиной window.
	Hit(ctx context.Context, key string, window time.Duration) (Counter, error)
	// Peek возвращает счётчик без изменения. found=false, если окна нет или оно истекло.
	Peek(ctx context.Context, key string) (Counter, bool, error)
}

// Tier потолок запросов за окно.
type Tier struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Result ответ Check.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter проверяет ключи против уровней.
type Limiter struct {
	store Store
}

// New создаёт Limiter поверх store.
func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check учитывает запрос с ключом key и сравнивает счётчик с лимитом tier.
func (l *Limiter) Check(ctx context.Context, tier Tier, key string) (Result, error) {
	const op = "ratelimit.Check"
	c, err := l.store.Hit(ctx, key, tier.Window)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	remaining := tier.Limit - c.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Success:   c.Count <= tier.Limit,
		Limit:     tier.Limit,
		Remaining: remaining,
		Reset:     c.ResetAt,
	}, nil
}
