package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Имена уровней.
const (
	TierGlobal = "global"
	TierNormal = "normal"
	TierStrict = "strict"
)

// Tiers настройки трёх уровней.
type Tiers struct {
	Global Tier
	Normal Tier
	Strict Tier
}

// DefaultTiers возвращает лимиты по умолчанию: 100 запросов в минуту на весь
// трафик, 5 в минуту на IP и 1 за 15 минут на IP после нарушения.
func DefaultTiers() Tiers {
	return Tiers{
		Global: Tier{Name: TierGlobal, Limit: 100, Window: time.Minute},
		Normal: Tier{Name: TierNormal, Limit: 5, Window: time.Minute},
		Strict: Tier{Name: TierStrict, Limit: 1, Window: 15 * time.Minute},
	}
}

// Decision итог проверки всех уровней. Tier указывает уровень, определивший результат.
type Decision struct {
	Result
	Tier string
}

// Tiered применяет уровни последовательно: глобальный, строгий (если IP
// оштрафован), обычный. Нарушение обычного уровня штрафует IP на окно строгого.
type Tiered struct {
	limiter *Limiter
	store   Store
	prefix  string
	tiers   Tiers
}

// NewTiered создаёт Tiered. prefix отделяет счётчики разных групп маршрутов.
func NewTiered(store Store, prefix string, tiers Tiers) *Tiered {
	tiers.Global.Name = TierGlobal
	tiers.Normal.Name = TierNormal
	tiers.Strict.Name = TierStrict
	return &Tiered{
		limiter: New(store),
		store:   store,
		prefix:  prefix,
		tiers:   tiers,
	}
}

// Allow проверяет запрос с адреса ip.
func (t *Tiered) Allow(ctx context.Context, ip string) (Decision, error) {
	const op = "ratelimit.Tiered.Allow"

	global, err := t.limiter.Check(ctx, t.tiers.Global, t.key(TierGlobal, "all"))
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if !global.Success {
		return Decision{Result: global, Tier: TierGlobal}, nil
	}

	var strict *Result
	_, penalized, err := t.store.Peek(ctx, t.key("penalty", ip))
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if penalized {
		res, err := t.limiter.Check(ctx, t.tiers.Strict, t.key(TierStrict, ip))
		if err != nil {
			return Decision{}, fmt.Errorf("%s: %w", op, err)
		}
		if !res.Success {
			return Decision{Result: res, Tier: TierStrict}, nil
		}
		strict = &res
	}

	normal, err := t.limiter.Check(ctx, t.tiers.Normal, t.key(TierNormal, ip))
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if !normal.Success {
		if _, err := t.store.Hit(ctx, t.key("penalty", ip), t.tiers.Strict.Window); err != nil {
			return Decision{}, fmt.Errorf("%s: %w", op, err)
		}
		return Decision{Result: normal, Tier: TierNormal}, nil
	}

	if strict != nil {
		return Decision{Result: *strict, Tier: TierStrict}, nil
	}
	return Decision{Result: normal, Tier: TierNormal}, nil
}

func (t *Tiered) key(tier, id string) string {
	return t.prefix + ":" + tier + ":" + id
}
