// Package health реализует проверку готовности сервиса (GET /health).
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/fund-newsletter/internal/http/response"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler опрашивает зависимости сервиса.
type Handler struct {
	log    *slog.Logger
	checks map[string]Pinger
}

// New создаёт Handler. checks задаёт зависимости по именам.
func New(log *slog.Logger, checks map[string]Pinger) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Error("dependency is unhealthy", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{
			Data:    status,
			Error:   apperr.CodeUnavailable,
			Message: "service is unhealthy",
		})
		return
	}
	render.JSON(w, r, response.OK(status, "ok"))
}
