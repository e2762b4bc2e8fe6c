package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"anycraft.io/bot/internal/config"
	"anycraft.io/bot/internal/middleware"
)

// newRouter собирает маршруты: вебхук Telegram и проверку живости.
func newRouter(cfg *config.Config, webhook http.Handler, webhookLimiter *middleware.KeyedLimiter) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	router.With(
		middleware.RateLimit(webhookLimiter),
		middleware.RequireSecretToken(cfg.Telegram.WebhookSecret),
	).Post(cfg.Telegram.WebhookPath, webhook.ServeHTTP)

	return router
}
