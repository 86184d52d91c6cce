package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

// RecordConsent сохраняет запись согласия.
func (s *Storage) RecordConsent(ctx context.Context, rec models.ConsentRecord) error {
	const op = "storage.RecordConsent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO consent_records (id, subscriber_id, email, legal_basis, method,
			      purposes, ip_hash, user_agent, granted_at)
			  VALUES ($1, $2, $3, $4, $5, string_to_array($6, ','), $7, $8, $9)`
	_, err := s.DB.ExecContext(ctx, query,
		rec.ID, rec.SubscriberID, rec.Email, rec.LegalBasis, rec.Method,
		strings.Join(rec.Purposes, ","), nullString(rec.IPHash), nullString(rec.UserAgent), rec.GrantedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WithdrawConsent отмечает отзыв всех действующих согласий адреса email
// и возвращает число затронутых записей.
func (s *Storage) WithdrawConsent(ctx context.Context, email string, at time.Time) (int64, error) {
	const op = "storage.WithdrawConsent"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE consent_records
			  SET withdrawn_at = $2
			  WHERE email = $1 AND withdrawn_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, email, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListConsent возвращает записи согласия адреса email, новые первыми.
func (s *Storage) ListConsent(ctx context.Context, email string) ([]models.ConsentRecord, error) {
	const op = "storage.ListConsent"

	query := `SELECT id, subscriber_id, email, legal_basis, method,
			      array_to_string(purposes, ','), COALESCE(ip_hash, ''), COALESCE(user_agent, ''),
			      granted_at, withdrawn_at
			  FROM consent_records
			  WHERE email = $1
			  ORDER BY granted_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ConsentRecord
	for rows.Next() {
		var (
			rec      models.ConsentRecord
			purposes string
		)
		if err := rows.Scan(&rec.ID, &rec.SubscriberID, &rec.Email, &rec.LegalBasis, &rec.Method,
			&purposes, &rec.IPHash, &rec.UserAgent, &rec.GrantedAt, &rec.WithdrawnAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if purposes != "" {
			rec.Purposes = strings.Split(purposes, ",")
		}
		result = append(result, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
