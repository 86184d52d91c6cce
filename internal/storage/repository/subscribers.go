package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

const subscriberColumns = `id, email, name, status, source, subscribed_at, unsubscribe_token,
			      ip_hash, user_agent, unsubscribed_at, unsubscribe_ip_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var (
		sub                                  models.Subscriber
		ipHash, userAgent, unsubscribeIPHash sql.NullString
		unsubscribedAt                       sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.Email, &sub.Name, &sub.Status, &sub.Source,
		&sub.SubscribedAt, &sub.UnsubscribeToken, &ipHash, &userAgent,
		&unsubscribedAt, &unsubscribeIPHash, &sub.CreatedAt, &sub.Metadata.UpdatedAt); err != nil {
		return nil, err
	}
	sub.Metadata.IPHash = ipHash.String
	sub.Metadata.UserAgent = userAgent.String
	sub.Metadata.UnsubscribeIPHash = unsubscribeIPHash.String
	if unsubscribedAt.Valid {
		t := unsubscribedAt.Time
		sub.Metadata.UnsubscribedAt = &t
	}
	return &sub, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateSubscriberIfAbsent добавляет подписчика, если адрес ещё не занят.
// created=false означает, что подписчик с таким адресом уже существует.
func (s *Storage) CreateSubscriberIfAbsent(ctx context.Context, sub models.Subscriber) (bool, error) {
	const op = "storage.CreateSubscriberIfAbsent"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscribers (id, email, name, status, source, subscribed_at,
			      unsubscribe_token, ip_hash, user_agent, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (email) DO NOTHING
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query,
		sub.ID, sub.Email, sub.Name, sub.Status, sub.Source, sub.SubscribedAt,
		sub.UnsubscribeToken, nullString(sub.Metadata.IPHash), nullString(sub.Metadata.UserAgent),
		sub.CreatedAt, sub.Metadata.UpdatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// GetSubscriberByEmail возвращает подписчика по нормализованному адресу.
func (s *Storage) GetSubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	const op = "storage.GetSubscriberByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + `
			  FROM subscribers
			  WHERE email = $1`
	sub, err := scanSubscriber(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ReactivateSubscriber возвращает неактивного подписчика в статус active,
// обновляя имя, источник, токен и метаданные. updated=false, если подписчик
// уже активен или не найден.
func (s *Storage) ReactivateSubscriber(ctx context.Context, sub models.Subscriber) (bool, error) {
	const op = "storage.ReactivateSubscriber"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscribers
			  SET status = 'active',
			      name = $2,
			      source = $3,
			      subscribed_at = $4,
			      unsubscribe_token = $5,
			      ip_hash = $6,
			      user_agent = $7,
			      unsubscribed_at = NULL,
			      unsubscribe_ip_hash = NULL,
			      updated_at = $8
			  WHERE email = $1 AND status <> 'active'`
	res, err := s.DB.ExecContext(ctx, query,
		sub.Email, sub.Name, sub.Source, sub.SubscribedAt, sub.UnsubscribeToken,
		nullString(sub.Metadata.IPHash), nullString(sub.Metadata.UserAgent), sub.Metadata.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// UnsubscribeSubscriber переводит подписчика в статус unsubscribed.
// updated=false, если подписчик уже отписан или не найден.
func (s *Storage) UnsubscribeSubscriber(ctx context.Context, email string, at time.Time, ipHash string) (bool, error) {
	const op = "storage.UnsubscribeSubscriber"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscribers
			  SET status = 'unsubscribed',
			      unsubscribed_at = $2,
			      unsubscribe_ip_hash = $3,
			      updated_at = $2
			  WHERE email = $1 AND status <> 'unsubscribed'`
	res, err := s.DB.ExecContext(ctx, query, email, at, nullString(ipHash))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// ListActiveSubscribers возвращает до limit активных подписчиков с адресом
// больше afterEmail, упорядоченных по адресу.
func (s *Storage) ListActiveSubscribers(ctx context.Context, afterEmail string, limit int) ([]*models.Subscriber, error) {
	const op = "storage.ListActiveSubscribers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriberColumns + `
			  FROM subscribers
			  WHERE status = 'active' AND email > $1
			  ORDER BY email
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, afterEmail, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountActiveSubscribers возвращает число активных подписчиков.
func (s *Storage) CountActiveSubscribers(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSubscribers"
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
