package newsletter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/storage/repository"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// memRepo хранилище подписчиков в памяти с семантикой PostgreSQL-реализации.
type memRepo struct {
	mu       sync.Mutex
	subs     map[string]models.Subscriber
	consents []models.ConsentRecord
	withdraw []string
	failGet  error
}

func newMemRepo() *memRepo {
	return &memRepo{subs: map[string]models.Subscriber{}}
}

func (r *memRepo) CreateSubscriberIfAbsent(_ context.Context, sub models.Subscriber) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.Email]; ok {
		return false, nil
	}
	r.subs[sub.Email] = sub
	return true, nil
}

func (r *memRepo) GetSubscriberByEmail(_ context.Context, email string) (*models.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	sub, ok := r.subs[email]
	if !ok {
		return nil, fmt.Errorf("storage.GetSubscriberByEmail: %w", repository.ErrNotFound)
	}
	return &sub, nil
}

func (r *memRepo) ReactivateSubscriber(_ context.Context, sub models.Subscriber) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.subs[sub.Email]
	if !ok || cur.Status == models.StatusActive {
		return false, nil
	}
	cur.Name = sub.Name
	cur.Source = sub.Source
	cur.Status = models.StatusActive
	cur.SubscribedAt = sub.SubscribedAt
	cur.UnsubscribeToken = sub.UnsubscribeToken
	cur.Metadata = sub.Metadata
	r.subs[sub.Email] = cur
	return true, nil
}

func (r *memRepo) UnsubscribeSubscriber(_ context.Context, email string, at time.Time, ipHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.subs[email]
	if !ok || cur.Status == models.StatusUnsubscribed {
		return false, nil
	}
	cur.Status = models.StatusUnsubscribed
	cur.Metadata.UpdatedAt = at
	cur.Metadata.UnsubscribedAt = &at
	cur.Metadata.UnsubscribeIPHash = ipHash
	r.subs[email] = cur
	return true, nil
}

func (r *memRepo) RecordConsent(_ context.Context, rec models.ConsentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consents = append(r.consents, rec)
	return nil
}

func (r *memRepo) WithdrawConsent(_ context.Context, email string, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdraw = append(r.withdraw, email)
	return 1, nil
}

func (r *memRepo) get(email string) models.Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[email]
}

// memCache сериализует значения в JSON, как и Redis-кеш.
type memCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	failGet error
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, result any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return false, c.failGet
	}
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

// MockRepository используется там, где нужно смоделировать гонку или сбой.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSubscriberIfAbsent(ctx context.Context, sub models.Subscriber) (bool, error) {
	args := m.Called(ctx, sub)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func (m *MockRepository) ReactivateSubscriber(ctx context.Context, sub models.Subscriber) (bool, error) {
	args := m.Called(ctx, sub)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UnsubscribeSubscriber(ctx context.Context, email string, at time.Time, ipHash string) (bool, error) {
	args := m.Called(ctx, email, at, ipHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) RecordConsent(ctx context.Context, rec models.ConsentRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockRepository) WithdrawConsent(ctx context.Context, email string, at time.Time) (int64, error) {
	args := m.Called(ctx, email, at)
	return args.Get(0).(int64), args.Error(1)
}

type upperHasher struct{}

func (upperHasher) Hash(ip string) string {
	if ip == "" {
		return ""
	}
	return "h:" + strings.ToUpper(ip)
}
