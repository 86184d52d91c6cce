package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/token"
	"github.com/magabrotheeeer/fund-newsletter/internal/metrics"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListActiveSubscribers(ctx context.Context, afterEmail string, limit int) ([]*models.Subscriber, error) {
	args := m.Called(ctx, afterEmail, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscriber), args.Error(1)
}

func (m *MockRepository) CountActiveSubscribers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func subscribers(from, to int) []*models.Subscriber {
	var out []*models.Subscriber
	for i := from; i < to; i++ {
		out = append(out, &models.Subscriber{
			Email:  fmt.Sprintf("user%02d@example.com", i),
			Status: models.StatusActive,
		})
	}
	return out
}

var article = models.Article{Title: "Why we invest in infra", Slug: "why-infra"}

func TestSend_PagesThroughSubscribers(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	tokens := token.New("secret")
	m := metrics.NewNop()
	svc := NewService(newNoopLogger(), repo, pub, tokens, m, "https://fund.example")
	svc.pageSize = 2

	repo.On("ListActiveSubscribers", mock.Anything, "", 2).Return(subscribers(0, 2), nil).Once()
	repo.On("ListActiveSubscribers", mock.Anything, "user01@example.com", 2).Return(subscribers(2, 4), nil).Once()
	repo.On("ListActiveSubscribers", mock.Anything, "user03@example.com", 2).Return(subscribers(4, 5), nil).Once()

	pub.On("PublishNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Email == "user02@example.com"
	})).Return(errors.New("channel closed"))
	pub.On("PublishNotification", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.Send(context.Background(), Request{Article: article})
	require.NoError(t, err)

	assert.Equal(t, &Result{Total: 5, Queued: 4, Failed: 1}, res)
	repo.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "PublishNotification", 5)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.NotificationsPublished.WithLabelValues("article", "ok")))

	for _, c := range pub.Calls {
		n := c.Arguments.Get(1).(models.Notification)
		assert.Equal(t, models.NotificationArticle, n.Kind)
		require.NotNil(t, n.Article)
		assert.Equal(t, article.Slug, n.Article.Slug)

		u, err := url.Parse(n.UnsubscribeURL)
		require.NoError(t, err)
		assert.Equal(t, n.Email, u.Query().Get("email"))
		assert.True(t, tokens.Verify(u.Query().Get("token"), n.Email))
	}
}

func TestSend_DryRun(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := NewService(newNoopLogger(), repo, pub, token.New("secret"), metrics.NewNop(), "https://fund.example")

	repo.On("CountActiveSubscribers", mock.Anything).Return(42, nil)

	res, err := svc.Send(context.Background(), Request{Article: article, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, &Result{Total: 42, DryRun: true}, res)
	pub.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestSend_TestEmail(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := NewService(newNoopLogger(), repo, pub, token.New("secret"), metrics.NewNop(), "https://fund.example")

	pub.On("PublishNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Email == "editor@fund.example"
	})).Return(nil).Once()

	res, err := svc.Send(context.Background(), Request{Article: article, TestEmail: " Editor@Fund.example "})
	require.NoError(t, err)
	assert.Equal(t, &Result{Total: 1, Queued: 1}, res)
	pub.AssertExpectations(t)
	repo.AssertNotCalled(t, "ListActiveSubscribers", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_InvalidTestEmail(t *testing.T) {
	svc := NewService(newNoopLogger(), new(MockRepository), new(MockPublisher), token.New("secret"), metrics.NewNop(), "https://fund.example")

	_, err := svc.Send(context.Background(), Request{Article: article, TestEmail: "nope"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
}

func TestSend_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(newNoopLogger(), repo, new(MockPublisher), token.New("secret"), metrics.NewNop(), "https://fund.example")

	repo.On("ListActiveSubscribers", mock.Anything, "", PageSize).Return(nil, errors.New("db down"))

	_, err := svc.Send(context.Background(), Request{Article: article})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDependency, apperr.From(err).Kind)
}
