package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("все зависимости доступны", func(t *testing.T) {
		w := httptest.NewRecorder()
		New(logger, map[string]Pinger{"postgres": up, "redis": up}).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"postgres":"ok","redis":"ok"},"message":"ok"}`, w.Body.String())
	})

	t.Run("redis недоступен", func(t *testing.T) {
		w := httptest.NewRecorder()
		New(logger, map[string]Pinger{"postgres": up, "redis": down}).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"success":false,"data":{"postgres":"ok","redis":"down"},"error":"SERVICE_UNAVAILABLE","message":"service is unhealthy"}`, w.Body.String())
	})
}
