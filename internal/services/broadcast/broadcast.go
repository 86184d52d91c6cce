// Package broadcast рассылает уведомление о новой статье всем активным подписчикам.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/links"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/validation"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// PageSize число подписчиков, читаемых из хранилища за один запрос.
const PageSize = 500

// Repository определяет методы чтения активных подписчиков.
type Repository interface {
	ListActiveSubscribers(ctx context.Context, afterEmail string, limit int) ([]*models.Subscriber, error)
	CountActiveSubscribers(ctx context.Context) (int, error)
}

// Publisher ставит уведомления в очередь отправки.
type Publisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// Tokens генерирует токены отписки.
type Tokens interface {
	Generate(email string) string
}

// Request запрос рассылки.
type Request struct {
	Article models.Article
	// TestEmail отправляет статью только на этот адрес.
	TestEmail string
	// DryRun только считает получателей.
	DryRun bool
}

// Result итог рассылки.
type Result struct {
	Total  int  `json:"total"`
	Queued int  `json:"queued"`
	Failed int  `json:"failed"`
	DryRun bool `json:"dryRun"`
}

// Service ставит в очередь письма о статьях.
type Service struct {
	repo      Repository
	publisher Publisher
	tokens    Tokens
	metrics   *metrics.Metrics
	log       *slog.Logger
	siteURL   string
	pageSize  int
	now       func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(log *slog.Logger, repo Repository, publisher Publisher, tokens Tokens, m *metrics.Metrics, siteURL string) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		tokens:    tokens,
		metrics:   m,
		log:       log,
		siteURL:   siteURL,
		pageSize:  PageSize,
		now:       time.Now,
	}
}

// Send ставит в очередь по одному уведомлению на каждого активного
// подписчика. Ошибка публикации для одного адреса не прерывает рассылку
// и учитывается в Result.Failed.
func (s *Service) Send(ctx context.Context, req Request) (*Result, error) {
	const op = "broadcast.Send"
	log := s.log.With(slog.String("op", op), slog.String("slug", req.Article.Slug))

	if req.TestEmail != "" {
		email := validation.SanitizeEmail(req.TestEmail)
		if err := validation.ValidateEmail(email).Err(); err != nil {
			return nil, err
		}
		res := &Result{Total: 1, DryRun: req.DryRun}
		if req.DryRun {
			return res, nil
		}
		s.deliver(ctx, log, req.Article, email, "", res)
		return res, nil
	}

	if req.DryRun {
		total, err := s.repo.CountActiveSubscribers(ctx)
		if err != nil {
			return nil, apperr.Dependency(op, err)
		}
		return &Result{Total: total, DryRun: true}, nil
	}

	res := &Result{}
	after := ""
	for {
		page, err := s.repo.ListActiveSubscribers(ctx, after, s.pageSize)
		if err != nil {
			log.Error("failed to list subscribers", slog.Int("queued", res.Queued), sl.Err(err))
			return nil, apperr.Dependency(op, err)
		}
		for _, sub := range page {
			res.Total++
			s.deliver(ctx, log, req.Article, sub.Email, sub.Name, res)
		}
		if len(page) < s.pageSize {
			break
		}
		after = page[len(page)-1].Email
	}

	log.Info("article broadcast queued",
		slog.Int("total", res.Total),
		slog.Int("queued", res.Queued),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *Service) deliver(ctx context.Context, log *slog.Logger, article models.Article, email, name string, res *Result) {
	a := article
	n := models.Notification{
		Kind:           models.NotificationArticle,
		Email:          email,
		Name:           name,
		UnsubscribeURL: links.Unsubscribe(s.siteURL, email, s.tokens.Generate(email)),
		Article:        &a,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		res.Failed++
		s.metrics.NotificationsPublished.WithLabelValues(string(n.Kind), "error").Inc()
		log.Warn("failed to queue article", sl.Email(email), sl.Err(err))
		return
	}
	res.Queued++
	s.metrics.NotificationsPublished.WithLabelValues(string(n.Kind), "ok").Inc()
}
