package newsletter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/fund-newsletter/internal/cache"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/validation"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/storage/repository"
)

const (
	cacheStatus     = "status"
	cacheValidation = "email_validation"
)

// validateEmail проверяет адрес, запоминая результат в кеше.
// Проверка зависит только от адреса, поэтому кешируются и отказы.
func (s *Service) validateEmail(ctx context.Context, email string) validation.EmailResult {
	key := cache.EmailValidationKey(email)

	var res validation.EmailResult
	found, err := s.cache.Get(ctx, key, &res)
	switch {
	case err != nil:
		s.cacheLookup(cacheValidation, "error")
		s.log.Warn("failed to read email validation from cache", sl.Email(email), sl.Err(err))
	case found:
		s.cacheLookup(cacheValidation, "hit")
		return res
	default:
		s.cacheLookup(cacheValidation, "miss")
	}

	res = validation.ValidateEmail(email)
	if err := s.cache.Set(ctx, key, res, s.opts.ValidationTTL); err != nil {
		s.log.Warn("failed to cache email validation", sl.Email(email), sl.Err(err))
	}
	return res
}

// statusOf возвращает статус подписчика из кеша или хранилища.
// nil без ошибки означает, что подписчика нет.
func (s *Service) statusOf(ctx context.Context, email string) (*models.StatusSnapshot, error) {
	const op = "newsletter.statusOf"
	key := cache.StatusKey(email)

	var snap models.StatusSnapshot
	found, err := s.cache.Get(ctx, key, &snap)
	switch {
	case err != nil:
		s.cacheLookup(cacheStatus, "error")
		s.log.Warn("failed to read status from cache", sl.Email(email), sl.Err(err))
	case found:
		s.cacheLookup(cacheStatus, "hit")
		return &snap, nil
	default:
		s.cacheLookup(cacheStatus, "miss")
	}

	sub, err := s.repo.GetSubscriberByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}

	snap = sub.Snapshot()
	if err := s.cache.Set(ctx, key, snap, s.opts.StatusTTL); err != nil {
		s.log.Warn("failed to cache status", sl.Email(email), sl.Err(err))
	}
	return &snap, nil
}

// invalidateStatus удаляет статус адреса из кеша. Ошибка кеша не отменяет
// уже выполненную запись: устаревшая запись истечёт через StatusTTL.
func (s *Service) invalidateStatus(ctx context.Context, email string) {
	if err := s.cache.Invalidate(ctx, cache.StatusKey(email)); err != nil {
		s.log.Error("failed to invalidate status cache", sl.Email(email), sl.Err(err))
	}
}

func (s *Service) cacheLookup(name, result string) {
	s.metrics.CacheLookups.WithLabelValues(name, result).Inc()
}

// background запускает фоновую задачу с собственным тайм-аутом. Задача
// наследует значения ctx, но не его отмену.
func (s *Service) background(ctx context.Context, task string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.metrics.SideEffectFailures.WithLabelValues(task).Inc()
			s.log.Warn("background task failed", slog.String("task", task), sl.Err(err))
		}
	}()
}
