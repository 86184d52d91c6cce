package newsletter

import (
	"context"
	"time"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/validation"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// StatusInput запрос статуса подписки.
type StatusInput struct {
	Email string
	Token string
	// Authorized выставляется, если запрос подписан административным ключом.
	Authorized bool
}

// StatusView ответ на запрос статуса.
type StatusView struct {
	Email        string        `json:"email"`
	Subscribed   bool          `json:"subscribed"`
	Status       models.Status `json:"status,omitempty"`
	SubscribedAt *time.Time    `json:"subscribedAt,omitempty"`
}

// Status возвращает статус подписки адреса. Без включённой публичной
// проверки статус раскрывается только владельцу валидного токена или
// административному ключу.
func (s *Service) Status(ctx context.Context, in StatusInput) (*StatusView, error) {
	email := validation.SanitizeEmail(in.Email)
	if err := validation.ValidateEmail(email).Err(); err != nil {
		return nil, err
	}
	if !s.opts.PublicStatusCheck && !in.Authorized && !s.tokens.Verify(in.Token, email) {
		return nil, apperr.Forbidden(apperr.CodeStatusForbidden, "a valid token is required to check subscription status")
	}

	snap, err := s.statusOf(ctx, email)
	if err != nil {
		return nil, err
	}

	view := &StatusView{Email: email}
	if snap == nil {
		return view, nil
	}
	at := snap.SubscribedAt
	view.Subscribed = snap.Status == models.StatusActive
	view.Status = snap.Status
	view.SubscribedAt = &at
	return view, nil
}
