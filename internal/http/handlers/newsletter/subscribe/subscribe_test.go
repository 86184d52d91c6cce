package subscribe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

// MockService реализует интерфейс subscribe.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Subscribe(ctx context.Context, in newsletter.SubscribeInput) (*newsletter.SubscribeResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*newsletter.SubscribeResult), args.Error(1)
}

func TestSubscribeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "новый подписчик",
			body: `{"name":"John Doe","email":"John.Doe@Example.com"}`,
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, newsletter.SubscribeInput{
					Name:      "John Doe",
					Email:     "John.Doe@Example.com",
					IP:        "192.0.2.1",
					UserAgent: "test-agent",
				}).Return(&newsletter.SubscribeResult{
					SubscriptionID: "sub-1",
					Status:         models.StatusActive,
					Message:        newsletter.MsgSubscribed,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"subscriptionId":"sub-1","status":"active","isExistingSubscriber":false,"isResubscription":false},"message":"Successfully subscribed to the newsletter"}`,
		},
		{
			name: "уже подписан",
			body: `{"name":"John Doe","email":"john@example.com","source":"footer"}`,
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, mock.Anything).Return(&newsletter.SubscribeResult{
					SubscriptionID:       "sub-1",
					Status:               models.StatusActive,
					IsExistingSubscriber: true,
					Message:              newsletter.MsgAlreadyIn,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"subscriptionId":"sub-1","status":"active","isExistingSubscriber":true,"isResubscription":false},"message":"You're already subscribed to the newsletter"}`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"name":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"INVALID_REQUEST","message":"invalid request body"}`,
		},
		{
			name:           "нет адреса",
			body:           `{"name":"John Doe"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"INVALID_REQUEST","message":"field Email is a required field"}`,
		},
		{
			name: "одноразовый адрес",
			body: `{"name":"John Doe","email":"j@mailinator.com"}`,
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, mock.Anything).
					Return(nil, apperr.Validation(apperr.CodeDisposableEmail, "disposable email addresses are not allowed"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"DISPOSABLE_EMAIL","message":"disposable email addresses are not allowed"}`,
		},
		{
			name: "ошибка хранилища",
			body: `{"name":"John Doe","email":"john@example.com"}`,
			setupMock: func(m *MockService) {
				m.On("Subscribe", mock.Anything, mock.Anything).
					Return(nil, apperr.Dependency("newsletter.create", assert.AnError))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"success":false,"error":"INTERNAL_ERROR","message":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/newsletter/subscribe", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("User-Agent", "test-agent")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
