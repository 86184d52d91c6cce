// Package mail отправляет письма через SMTP или AWS SES.
// Оба транспорта принимают одно и то же сообщение и собирают из него
// MIME-письмо с текстовой и HTML-частями.
package mail

import (
	"context"
	"errors"
)

// Mailer отправляет одно письмо.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message письмо одному получателю.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// UnsubscribeURL попадает в заголовки List-Unsubscribe.
	UnsubscribeURL string
}

// Sender адрес отправителя.
type Sender struct {
	Email   string
	Name    string
	ReplyTo string
}

// ErrNoRecipient возвращается для письма без получателя.
var ErrNoRecipient = errors.New("mail: empty recipient")
