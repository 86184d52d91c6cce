package models

import "time"

// Article публикация, о которой уведомляются подписчики.
type Article struct {
	Title       string    `json:"title" validate:"required,max=300"`
	Slug        string    `json:"slug" validate:"required,max=200"`
	Excerpt     string    `json:"excerpt" validate:"max=1000"`
	URL         string    `json:"url" validate:"omitempty,url"`
	Author      string    `json:"author" validate:"max=200"`
	Category    string    `json:"category" validate:"max=100"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NotificationKind тип письма.
type NotificationKind string

const (
	NotificationWelcome      NotificationKind = "welcome"
	NotificationUnsubscribed NotificationKind = "unsubscribed"
	NotificationArticle      NotificationKind = "article"
)

// Notification сообщение очереди, по которому отправляется одно письмо.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	Email          string           `json:"email"`
	Name           string           `json:"name,omitempty"`
	UnsubscribeURL string           `json:"unsubscribeUrl,omitempty"`
	ResubscribeURL string           `json:"resubscribeUrl,omitempty"`
	Article        *Article         `json:"article,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}
