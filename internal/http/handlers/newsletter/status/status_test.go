package status

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/models"
	"github.com/magabrotheeeer/fund-newsletter/internal/services/newsletter"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Status(ctx context.Context, in newsletter.StatusInput) (*newsletter.StatusView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*newsletter.StatusView), args.Error(1)
}

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		url            string
		admin          bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "активный подписчик по токену",
			url:  "/newsletter/subscribe?email=jane@example.com&token=tok",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, newsletter.StatusInput{Email: "jane@example.com", Token: "tok"}).
					Return(&newsletter.StatusView{Email: "jane@example.com", Subscribed: true, Status: models.StatusActive, SubscribedAt: &at}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"email":"jane@example.com","subscribed":true,"status":"active","subscribedAt":"2026-03-01T12:00:00Z"}}`,
		},
		{
			name:  "административный ключ",
			url:   "/newsletter/subscribe?email=ghost@example.com",
			admin: true,
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, newsletter.StatusInput{Email: "ghost@example.com", Authorized: true}).
					Return(&newsletter.StatusView{Email: "ghost@example.com"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"email":"ghost@example.com","subscribed":false}}`,
		},
		{
			name: "без токена",
			url:  "/newsletter/subscribe?email=jane@example.com",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, mock.Anything).
					Return(nil, apperr.Forbidden(apperr.CodeStatusForbidden, "a valid token is required to check subscription status"))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"success":false,"error":"STATUS_CHECK_FORBIDDEN","message":"a valid token is required to check subscription status"}`,
		},
		{
			name: "нет адреса",
			url:  "/newsletter/subscribe",
			setupMock: func(m *MockService) {
				m.On("Status", mock.Anything, mock.Anything).
					Return(nil, apperr.Validation(apperr.CodeInvalidEmail, "email is required"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"INVALID_EMAIL","message":"email is required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.admin {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Admin, true))
			}
			w := httptest.NewRecorder()

			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
