package newsletter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/links"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/validation"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// Сообщения ответа на подписку.
const (
	MsgSubscribed   = "Successfully subscribed to the newsletter"
	MsgResubscribed = "Welcome back! Your subscription has been reactivated"
	MsgAlreadyIn    = "You're already subscribed to the newsletter"
)

// SubscribeInput запрос на подписку.
type SubscribeInput struct {
	Name      string
	Email     string
	Source    string
	IP        string
	UserAgent string
}

// SubscribeResult итог подписки.
type SubscribeResult struct {
	SubscriptionID       string        `json:"subscriptionId"`
	Status               models.Status `json:"status"`
	IsExistingSubscriber bool          `json:"isExistingSubscriber"`
	IsResubscription     bool          `json:"isResubscription"`
	Message              string        `json:"-"`
	EmailSuggestion      string        `json:"emailSuggestion,omitempty"`
}

// Subscribe создаёт подписчика, возвращает отписавшегося в статус active
// или сообщает, что адрес уже подписан. Повторная подписка активного адреса
// ничего не меняет и не отправляет писем.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	name := validation.SanitizeName(in.Name)
	email := validation.SanitizeEmail(in.Email)

	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	source, ok := models.ParseSource(in.Source)
	if !ok {
		return nil, apperr.Validation(apperr.CodeInvalidSource, "invalid subscription source")
	}
	emailRes := s.validateEmail(ctx, email)
	if err := emailRes.Err(); err != nil {
		return nil, err
	}

	log := s.log.With(sl.Email(email))

	snap, err := s.statusOf(ctx, email)
	if err != nil {
		return nil, err
	}

	var res *SubscribeResult
	switch {
	case snap == nil:
		res, err = s.create(ctx, log, name, email, source, in)
	case snap.Status == models.StatusActive:
		s.metrics.Subscriptions.WithLabelValues("existing").Inc()
		res = existing(snap.ID)
	default:
		res, err = s.reactivate(ctx, log, name, email, source, in)
	}
	if err != nil {
		return nil, err
	}
	res.EmailSuggestion = emailRes.Suggestion
	return res, nil
}

func existing(id string) *SubscribeResult {
	return &SubscribeResult{
		SubscriptionID:       id,
		Status:               models.StatusActive,
		IsExistingSubscriber: true,
		Message:              MsgAlreadyIn,
	}
}

func (s *Service) newSubscriber(name, email string, source models.Source, in SubscribeInput) models.Subscriber {
	now := s.now().UTC()
	return models.Subscriber{
		ID:               s.newID(),
		Email:            email,
		Name:             name,
		Status:           models.StatusActive,
		Source:           source,
		SubscribedAt:     now,
		UnsubscribeToken: s.tokens.Generate(email),
		Metadata: models.Metadata{
			UpdatedAt: now,
			IPHash:    s.ipHasher.Hash(in.IP),
			UserAgent: in.UserAgent,
		},
		CreatedAt: now,
	}
}

func (s *Service) create(ctx context.Context, log *slog.Logger, name, email string, source models.Source, in SubscribeInput) (*SubscribeResult, error) {
	const op = "newsletter.create"
	sub := s.newSubscriber(name, email, source, in)

	created, err := s.repo.CreateSubscriberIfAbsent(ctx, sub)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	if !created {
		// адрес заняли параллельным запросом: читаем запись из хранилища
		log.Info("subscriber created concurrently")
		stored, err := s.repo.GetSubscriberByEmail(ctx, email)
		if err != nil {
			return nil, apperr.Dependency(op, err)
		}
		if stored.IsActive() {
			s.metrics.Subscriptions.WithLabelValues("existing").Inc()
			return existing(stored.ID), nil
		}
		return s.reactivate(ctx, log, name, email, source, in)
	}

	s.invalidateStatus(ctx, email)
	s.metrics.Subscriptions.WithLabelValues("created").Inc()
	log.Info("subscriber created", slog.String("id", sub.ID), slog.String("source", string(source)))

	s.afterSubscribe(ctx, sub)
	return &SubscribeResult{
		SubscriptionID: sub.ID,
		Status:         models.StatusActive,
		Message:        MsgSubscribed,
	}, nil
}

func (s *Service) reactivate(ctx context.Context, log *slog.Logger, name, email string, source models.Source, in SubscribeInput) (*SubscribeResult, error) {
	const op = "newsletter.reactivate"
	sub := s.newSubscriber(name, email, source, in)

	updated, err := s.repo.ReactivateSubscriber(ctx, sub)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	s.invalidateStatus(ctx, email)

	stored, err := s.repo.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	if !updated {
		s.metrics.Subscriptions.WithLabelValues("existing").Inc()
		return existing(stored.ID), nil
	}

	s.metrics.Subscriptions.WithLabelValues("reactivated").Inc()
	log.Info("subscriber reactivated", slog.String("id", stored.ID), slog.String("source", string(source)))

	sub.ID = stored.ID
	s.afterSubscribe(ctx, sub)
	return &SubscribeResult{
		SubscriptionID:   stored.ID,
		Status:           models.StatusActive,
		IsResubscription: true,
		Message:          MsgResubscribed,
	}, nil
}

// afterSubscribe записывает согласие и ставит в очередь приветственное письмо.
func (s *Service) afterSubscribe(ctx context.Context, sub models.Subscriber) {
	rec := models.ConsentRecord{
		ID:           s.newID(),
		SubscriberID: sub.ID,
		Email:        sub.Email,
		LegalBasis:   models.LegalBasisConsent,
		Method:       models.MethodWebForm,
		Purposes:     []string{models.PurposeNewsletter, models.PurposeInsights},
		IPHash:       sub.Metadata.IPHash,
		UserAgent:    sub.Metadata.UserAgent,
		GrantedAt:    sub.SubscribedAt,
	}
	s.background(ctx, "record_consent", func(ctx context.Context) error {
		return s.repo.RecordConsent(ctx, rec)
	})

	n := models.Notification{
		Kind:           models.NotificationWelcome,
		Email:          sub.Email,
		Name:           sub.Name,
		UnsubscribeURL: links.Unsubscribe(s.opts.SiteURL, sub.Email, sub.UnsubscribeToken),
		CreatedAt:      sub.SubscribedAt,
	}
	s.background(ctx, "welcome_email", func(ctx context.Context) error {
		return s.publish(ctx, n)
	})
}

func (s *Service) publish(ctx context.Context, n models.Notification) error {
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		s.metrics.NotificationsPublished.WithLabelValues(string(n.Kind), "error").Inc()
		return fmt.Errorf("publish %s: %w", n.Kind, err)
	}
	s.metrics.NotificationsPublished.WithLabelValues(string(n.Kind), "ok").Inc()
	return nil
}
