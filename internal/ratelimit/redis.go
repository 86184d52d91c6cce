package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript атомарно увеличивает счётчик и выставляет срок жизни новому окну.
// Возвращает {count, pttl}.
const hitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

// RedisStore хранит счётчики в Redis. Ключ окна живёт ровно его длительность.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
	prefix string
	now    func() time.Time
}

// NewRedisStore создаёт RedisStore. Все ключи получают префикс prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(hitScript),
		prefix: prefix,
		now:    time.Now,
	}
}

// Hit реализует Store.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Counter, error) {
	const op = "ratelimit.RedisStore.Hit"
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	vals, err := s.script.Run(ctx, s.client, []string{s.prefix + key}, ms).Int64Slice()
	if err != nil {
		return Counter{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(vals) != 2 {
		return Counter{}, fmt.Errorf("%s: unexpected script result %v", op, vals)
	}
	return Counter{
		Count:   int(vals[0]),
		ResetAt: s.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// Peek реализует Store.
func (s *RedisStore) Peek(ctx context.Context, key string) (Counter, bool, error) {
	const op = "ratelimit.RedisStore.Peek"
	k := s.prefix + key

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Counter{}, false, fmt.Errorf("%s: %w", op, err)
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return Counter{}, false, nil
	}
	if err != nil {
		return Counter{}, false, fmt.Errorf("%s: %w", op, err)
	}
	reset := s.now()
	if ttl := ttlCmd.Val(); ttl > 0 {
		reset = reset.Add(ttl)
	}
	return Counter{Count: count, ResetAt: reset}, true, nil
}
