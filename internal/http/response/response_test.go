package response

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			err:        apperr.Validation(apperr.CodeInvalidEmail, "invalid email format"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"INVALID_EMAIL","message":"invalid email format"}`,
		},
		{
			name:       "forbidden",
			err:        apperr.Forbidden(apperr.CodeInvalidToken, "invalid or expired unsubscribe token"),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"success":false,"error":"INVALID_TOKEN","message":"invalid or expired unsubscribe token"}`,
		},
		{
			name:       "dependency hides details",
			err:        apperr.Dependency("storage.Get", errors.New("pq: password authentication failed")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"error":"INTERNAL_ERROR","message":"internal server error"}`,
		},
		{
			name:       "timeout",
			err:        apperr.Dependency("storage.Get", context.DeadlineExceeded),
			wantStatus: http.StatusRequestTimeout,
			wantBody:   `{"success":false,"error":"REQUEST_TIMEOUT","message":"request timed out"}`,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"error":"INTERNAL_ERROR","message":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()

			FromError(w, req, newNoopLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Title string `validate:"required"`
		URL   string `validate:"omitempty,url"`
	}
	err := validator.New().Struct(request{URL: "not a url"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	resp := ValidationError(verrs)
	assert.False(t, resp.Success)
	assert.Equal(t, apperr.CodeInvalidRequest, resp.Error)
	assert.Equal(t, "field Title is a required field, field URL must be a valid URL", resp.Message)
}

func TestOK(t *testing.T) {
	resp := OK(map[string]int{"total": 1}, "done")
	assert.True(t, resp.Success)
	assert.Equal(t, "done", resp.Message)
	assert.Empty(t, resp.Error)
}
