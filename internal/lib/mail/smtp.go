package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/fund-newsletter/internal/config"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// Client часть *smtp.Client, используемая при отправке.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает авторизованное SMTP-соединение.
type Dialer interface {
	Connect(ctx context.Context) (Client, error)
}

// Transport подключается к SMTP-серверу с STARTTLS и PLAIN-аутентификацией.
type Transport struct {
	host string
	port string
	user string
	pass string
	log  *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.Mail, log *slog.Logger) *Transport {
	return &Transport{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		log:  log,
	}
}

// Connect устанавливает соединение с SMTP сервером.
func (t *Transport) Connect(ctx context.Context) (Client, error) {
	addr := net.JoinHostPort(t.host, t.port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	tlsConfig := &tls.Config{
		ServerName: t.host,
		MinVersion: tls.VersionTLS12,
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS")
		if closeErr := client.Close(); closeErr != nil {
			t.log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, errors.New("smtp server does not support STARTTLS")
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			t.log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	if t.user != "" {
		auth := smtp.PlainAuth("", t.user, t.pass, t.host)
		if err = client.Auth(auth); err != nil {
			t.log.Error("smtp auth failed", sl.Err(err))
			if closeErr := client.Close(); closeErr != nil {
				t.log.Error("failed to close client", sl.Err(closeErr))
			}
			return nil, fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	return client, nil
}

// SMTPMailer отправляет письма через Dialer, по соединению на письмо.
type SMTPMailer struct {
	dialer Dialer
	from   Sender
	log    *slog.Logger
	now    func() time.Time
}

// NewSMTPMailer создаёт SMTPMailer.
func NewSMTPMailer(dialer Dialer, from Sender, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{dialer: dialer, from: from, log: log, now: time.Now}
}

// Send реализует Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	const op = "mail.SMTPMailer.Send"
	if msg.To == "" {
		return ErrNoRecipient
	}
	body, err := buildMIME(m.from, msg, m.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	client, err := m.dialer.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(m.from.Email); err != nil {
		return fmt.Errorf("%s: MAIL FROM: %w", op, err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%s: RCPT TO: %w", op, err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: DATA: %w", op, err)
	}
	if _, err := wc.Write(body); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write body: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: close body: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		m.log.Warn("failed to quit SMTP client", sl.Err(err))
	}

	m.log.Debug("email sent via smtp", sl.Email(msg.To))
	return nil
}
