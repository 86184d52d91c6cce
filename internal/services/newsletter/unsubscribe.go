package newsletter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/links"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/validation"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/storage/repository"
)

// Сообщения ответа на отписку.
const (
	MsgUnsubscribed        = "You have been unsubscribed from the newsletter"
	MsgAlreadyUnsubscribed = "This email is already unsubscribed"
)

// UnsubscribeInput запрос на отписку.
type UnsubscribeInput struct {
	Email string
	Token string
	// Authorized разрешает отписку без токена (административный ключ).
	Authorized bool
	IP         string
	UserAgent  string
	// RequireSubscriber возвращает NotFound для неизвестного адреса.
	// Иначе неизвестный адрес неотличим от успешной отписки.
	RequireSubscriber bool
}

// UnsubscribeResult итог отписки.
type UnsubscribeResult struct {
	Email               string `json:"email"`
	AlreadyUnsubscribed bool   `json:"alreadyUnsubscribed"`
	Message             string `json:"-"`
}

// Unsubscribe переводит подписчика в статус unsubscribed. Запись не
// удаляется. Повторная отписка ничего не меняет.
func (s *Service) Unsubscribe(ctx context.Context, in UnsubscribeInput) (*UnsubscribeResult, error) {
	const op = "newsletter.Unsubscribe"

	email := validation.SanitizeEmail(in.Email)
	if err := validation.ValidateEmail(email).Err(); err != nil {
		return nil, err
	}
	if !in.Authorized && !s.tokens.Verify(in.Token, email) {
		return nil, apperr.Forbidden(apperr.CodeInvalidToken, "invalid or expired unsubscribe token")
	}

	log := s.log.With(sl.Email(email))

	sub, err := s.repo.GetSubscriberByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if in.RequireSubscriber {
			return nil, apperr.NotFound("subscriber not found")
		}
		log.Info("unsubscribe for unknown email")
		s.metrics.Unsubscriptions.WithLabelValues("unknown").Inc()
		return &UnsubscribeResult{Email: email, Message: MsgUnsubscribed}, nil
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	if sub.Status == models.StatusUnsubscribed {
		s.metrics.Unsubscriptions.WithLabelValues("already").Inc()
		return &UnsubscribeResult{Email: email, AlreadyUnsubscribed: true, Message: MsgAlreadyUnsubscribed}, nil
	}

	now := s.now().UTC()
	changed, err := s.repo.UnsubscribeSubscriber(ctx, email, now, s.ipHasher.Hash(in.IP))
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	s.invalidateStatus(ctx, email)
	if !changed {
		s.metrics.Unsubscriptions.WithLabelValues("already").Inc()
		return &UnsubscribeResult{Email: email, AlreadyUnsubscribed: true, Message: MsgAlreadyUnsubscribed}, nil
	}

	s.metrics.Unsubscriptions.WithLabelValues("unsubscribed").Inc()
	log.Info("subscriber unsubscribed", slog.String("id", sub.ID), slog.Bool("authorized", in.Authorized))

	s.background(ctx, "withdraw_consent", func(ctx context.Context) error {
		_, err := s.repo.WithdrawConsent(ctx, email, now)
		return err
	})
	n := models.Notification{
		Kind:           models.NotificationUnsubscribed,
		Email:          email,
		Name:           sub.Name,
		ResubscribeURL: links.Resubscribe(s.opts.SiteURL),
		CreatedAt:      now,
	}
	s.background(ctx, "unsubscribe_email", func(ctx context.Context) error {
		return s.publish(ctx, n)
	})

	return &UnsubscribeResult{Email: email, Message: MsgUnsubscribed}, nil
}
