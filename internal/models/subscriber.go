// Package models содержит доменные структуры рассылки: подписчика, запись
// согласия на обработку данных, статью и сообщение очереди уведомлений.
package models

import "time"

// Status состояние подписчика. Письма получают только активные подписчики.
type Status string

const (
	StatusActive       Status = "active"
	StatusUnsubscribed Status = "unsubscribed"
	StatusBounced      Status = "bounced"
)

// Source канал, через который пришёл подписчик.
type Source string

const (
	SourceWebsite  Source = "website"
	SourceHomepage Source = "homepage"
	SourceFooter   Source = "footer"
	SourceInsights Source = "insights"
	SourceThesis   Source = "thesis"
	SourcePopup    Source = "popup"
	SourceLanding  Source = "landing"
	SourceAPI      Source = "api"
)

var sources = map[Source]struct{}{
	SourceWebsite:  {},
	SourceHomepage: {},
	SourceFooter:   {},
	SourceInsights: {},
	SourceThesis:   {},
	SourcePopup:    {},
	SourceLanding:  {},
	SourceAPI:      {},
}

// ParseSource приводит строку к Source. Пустая строка означает SourceWebsite.
func ParseSource(s string) (Source, bool) {
	if s == "" {
		return SourceWebsite, true
	}
	src := Source(s)
	_, ok := sources[src]
	return src, ok
}

// Subscriber представляет получателя рассылки.
// Записи никогда не удаляются: отписка лишь меняет статус.
type Subscriber struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Status           Status    `json:"status"`
	Source           Source    `json:"source"`
	SubscribedAt     time.Time `json:"subscribedAt"`
	UnsubscribeToken string    `json:"-"`
	Metadata         Metadata  `json:"metadata"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Metadata служебные данные подписчика.
type Metadata struct {
	UpdatedAt         time.Time  `json:"updatedAt"`
	IPHash            string     `json:"ipHash,omitempty"`
	UserAgent         string     `json:"userAgent,omitempty"`
	UnsubscribedAt    *time.Time `json:"unsubscribedAt,omitempty"`
	UnsubscribeIPHash string     `json:"unsubscribeIpHash,omitempty"`
}

// IsActive сообщает, получает ли подписчик письма.
func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}

// StatusSnapshot часть подписчика, которая хранится в кеше статусов.
type StatusSnapshot struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// Snapshot возвращает StatusSnapshot подписчика.
func (s *Subscriber) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		ID:           s.ID,
		Status:       s.Status,
		SubscribedAt: s.SubscribedAt,
	}
}
