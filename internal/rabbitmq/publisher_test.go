package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls []publishCall
	err   error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return f.err
}

func TestPublishNotificationRouting(t *testing.T) {
	tests := []struct {
		kind    models.NotificationKind
		wantKey string
	}{
		{kind: models.NotificationWelcome, wantKey: RoutingKeyTransactional},
		{kind: models.NotificationUnsubscribed, wantKey: RoutingKeyTransactional},
		{kind: models.NotificationArticle, wantKey: RoutingKeyArticle},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ch := &fakeChannel{}
			p := &Publisher{ch: ch, exchange: Exchange}

			n := models.Notification{Kind: tt.kind, Email: "a@example.com", CreatedAt: time.Unix(0, 0).UTC()}
			require.NoError(t, p.PublishNotification(context.Background(), n))

			require.Len(t, ch.calls, 1)
			call := ch.calls[0]
			assert.Equal(t, Exchange, call.exchange)
			assert.Equal(t, tt.wantKey, call.key)
			assert.Equal(t, "application/json", call.msg.ContentType)
			assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)

			var got models.Notification
			require.NoError(t, json.Unmarshal(call.msg.Body, &got))
			assert.Equal(t, n.Email, got.Email)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestPublishMessageErrors(t *testing.T) {
	t.Run("channel error", func(t *testing.T) {
		p := &Publisher{ch: &fakeChannel{err: errors.New("closed")}, exchange: Exchange}
		err := p.PublishMessage(context.Background(), "k", map[string]string{"a": "b"})
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &Publisher{ch: ch, exchange: Exchange}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := p.PublishMessage(ctx, "k", "v")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ch.calls)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		p := &Publisher{ch: &fakeChannel{}, exchange: Exchange}
		err := p.PublishMessage(context.Background(), "k", make(chan int))
		assert.Error(t, err)
	})
}
