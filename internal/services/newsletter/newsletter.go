// Package newsletter реализует жизненный цикл подписки на рассылку:
// подписку, повторную подписку, проверку статуса и отписку.
//
// Хранилище является источником истины, кеш только ускоряет чтение статуса и
// проверку адресов. Каждая запись инвалидирует статус адреса в кеше.
// Запись согласия и письма отправляются в фоне: их ошибки логируются
// и никогда не откатывают основную операцию.
package newsletter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// Repository определяет методы хранилища подписчиков.
type Repository interface {
	// CreateSubscriberIfAbsent добавляет подписчика, если адрес свободен.
	CreateSubscriberIfAbsent(ctx context.Context, sub models.Subscriber) (bool, error)
	// GetSubscriberByEmail возвращает подписчика или ошибку, оборачивающую repository.ErrNotFound.
	GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	// ReactivateSubscriber возвращает неактивного подписчика в статус active.
	ReactivateSubscriber(ctx context.Context, sub models.Subscriber) (bool, error)
	// UnsubscribeSubscriber переводит подписчика в статус unsubscribed.
	UnsubscribeSubscriber(ctx context.Context, email string, at time.Time, ipHash string) (bool, error)
	// RecordConsent сохраняет запись согласия.
	RecordConsent(ctx context.Context, rec models.ConsentRecord) error
	// WithdrawConsent отмечает отзыв согласий адреса.
	WithdrawConsent(ctx context.Context, email string, at time.Time) (int64, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Publisher ставит уведомления в очередь отправки.
type Publisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// Tokens генерирует и проверяет токены отписки.
type Tokens interface {
	Generate(email string) string
	Verify(token, email string) bool
}

// IPHasher хеширует IP-адреса.
type IPHasher interface {
	Hash(ip string) string
}

// Options настройки сервиса.
type Options struct {
	// SiteURL публичный адрес, от которого строятся ссылки в письмах.
	SiteURL string
	// PublicStatusCheck разрешает проверку статуса без токена и API-ключа.
	PublicStatusCheck bool
	StatusTTL         time.Duration
	ValidationTTL     time.Duration
	// SideEffectTimeout ограничивает каждую фоновую задачу.
	SideEffectTimeout time.Duration
}

// Service реализует бизнес-логику подписки.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	tokens    Tokens
	ipHasher  IPHasher
	metrics   *metrics.Metrics
	log       *slog.Logger
	opts      Options

	now   func() time.Time
	newID func() string
	wg    sync.WaitGroup
}

// NewService создает новый экземпляр Service.
func NewService(
	log *slog.Logger,
	repo Repository,
	cache Cache,
	publisher Publisher,
	tokens Tokens,
	ipHasher IPHasher,
	m *metrics.Metrics,
	opts Options,
) *Service {
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = 10 * time.Minute
	}
	if opts.ValidationTTL <= 0 {
		opts.ValidationTTL = 24 * time.Hour
	}
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = 10 * time.Second
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		tokens:    tokens,
		ipHasher:  ipHasher,
		metrics:   m,
		log:       log,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Wait блокируется до завершения всех фоновых задач.
func (s *Service) Wait() {
	s.wg.Wait()
}
