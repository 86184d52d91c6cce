package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/magabrotheeeer/fund-newsletter/internal/config"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

// SESAPI часть клиента SES v2, используемая при отправке.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer отправляет письма через AWS SES v2 в виде готового MIME-сообщения,
// чтобы заголовки List-Unsubscribe совпадали с SMTP-транспортом.
type SESMailer struct {
	client SESAPI
	from   Sender
	log    *slog.Logger
	now    func() time.Time
}

// NewSESClient создаёт клиент SES. Если ключи не заданы, используется
// стандартная цепочка учётных данных AWS.
func NewSESClient(ctx context.Context, cfg config.Mail) (*sesv2.Client, error) {
	const op = "mail.NewSESClient"
	region := cfg.SESRegion
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.SESAccessKey != "" && cfg.SESSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKey, cfg.SESSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

// NewSESMailer создаёт SESMailer.
func NewSESMailer(client SESAPI, from Sender, log *slog.Logger) *SESMailer {
	return &SESMailer{client: client, from: from, log: log, now: time.Now}
}

// Send реализует Mailer.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	const op = "mail.SESMailer.Send"
	if msg.To == "" {
		return ErrNoRecipient
	}
	raw, err := buildMIME(m.from, msg, m.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from.Email),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	m.log.Debug("email sent via ses", sl.Email(msg.To), slog.String("message_id", messageID))
	return nil
}
