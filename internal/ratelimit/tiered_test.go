package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredNormalThenStrict(t *testing.T) {
	s, clock := newTestMemoryStore()
	tl := NewTiered(s, "subscribe", DefaultTiers())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := tl.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, d.Success, "request %d", i+1)
		assert.Equal(t, TierNormal, d.Tier)
	}

	d, err := tl.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, d.Success)
	assert.Equal(t, TierNormal, d.Tier)

	// после окна обычного уровня IP всё ещё оштрафован: один запрос за 15 минут
	clock.Advance(61 * time.Second)
	d, err = tl.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, d.Success)
	assert.Equal(t, TierStrict, d.Tier)

	d, err = tl.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, d.Success)
	assert.Equal(t, TierStrict, d.Tier)

	// другой адрес не затронут
	d, err = tl.Allow(ctx, "2.2.2.2")
	require.NoError(t, err)
	assert.True(t, d.Success)
	assert.Equal(t, TierNormal, d.Tier)

	clock.Advance(16 * time.Minute)
	d, err = tl.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, d.Success)
	assert.Equal(t, TierNormal, d.Tier)
}

func TestTieredGlobal(t *testing.T) {
	s, _ := newTestMemoryStore()
	tiers := DefaultTiers()
	tiers.Global.Limit = 3
	tl := NewTiered(s, "subscribe", tiers)
	ctx := context.Background()

	for i, ip := range []string{"a", "b", "c"} {
		d, err := tl.Allow(ctx, ip)
		require.NoError(t, err)
		assert.True(t, d.Success, "request %d", i+1)
	}
	d, err := tl.Allow(ctx, "d")
	require.NoError(t, err)
	assert.False(t, d.Success)
	assert.Equal(t, TierGlobal, d.Tier)
}

func TestTieredPrefixesAreIsolated(t *testing.T) {
	s, _ := newTestMemoryStore()
	sub := NewTiered(s, "subscribe", DefaultTiers())
	unsub := NewTiered(s, "unsubscribe", DefaultTiers())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := sub.Allow(ctx, "ip")
		require.NoError(t, err)
	}
	d, err := unsub.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Success)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (Counter, error) {
	return Counter{}, errors.New("store down")
}

func (failingStore) Peek(context.Context, string) (Counter, bool, error) {
	return Counter{}, false, errors.New("store down")
}

func TestTieredStoreError(t *testing.T) {
	tl := NewTiered(failingStore{}, "subscribe", DefaultTiers())
	_, err := tl.Allow(context.Background(), "ip")
	require.Error(t, err)
}
