// Package main Fund Newsletter API
//
// @title           Fund Newsletter API
// @version         1.0
// @description     API подписки на рассылку фонда: подписка, отписка по токену и рассылка статей.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Административный API-ключ.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/fund-newsletter/internal/app/newsletter"
	"github.com/magabrotheeeer/fund-newsletter/internal/config"
	"github.com/magabrotheeeer/fund-newsletter/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	logger.Info("starting newsletter api", slog.String("env", cfg.Env))
	logger.Debug("loaded config", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newsletter.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("newsletter api stopped gracefully")
}
