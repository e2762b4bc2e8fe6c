// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anycraft.io/bot/internal/booster"
	"anycraft.io/bot/internal/config"
	"anycraft.io/bot/internal/gameapi"
	"anycraft.io/bot/internal/middleware"
	"anycraft.io/bot/internal/payment_gateway/aeon"
	"anycraft.io/bot/internal/purchase"
	"anycraft.io/bot/internal/telegram"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterCleanupPeriod = time.Minute
	shutdownTimeout      = 20 * time.Second
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// конфигурация только из окружения
		configPath = ""
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Критическая ошибка: не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Запуск бота Anycraft...", "app_env", cfg.AppEnv, "production", cfg.Production, "is_rc", cfg.IsRC)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := booster.DefaultCatalog()
	gateway := aeon.NewClient(cfg.AEON)
	bot := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.Token, time.Duration(config.DefaultTimeoutSeconds)*time.Second)

	purchaseLimiter := middleware.NewKeyedLimiter(cfg.RateLimit.PurchaseRPS, cfg.RateLimit.PurchaseBurst, limiterIdleTTL)
	webhookLimiter := middleware.NewKeyedLimiter(cfg.RateLimit.WebhookRPS, cfg.RateLimit.WebhookBurst, limiterIdleTTL)
	go purchaseLimiter.Run(ctx, limiterCleanupPeriod)
	go webhookLimiter.Run(ctx, limiterCleanupPeriod)

	opts := []purchase.Option{purchase.WithLimiter(purchaseLimiter)}
	if cfg.GameAPI.URL != "" {
		game := gameapi.NewClient(cfg.GameAPI.URL, cfg.Telegram.Token, time.Duration(cfg.GameAPI.TimeoutSeconds)*time.Second)
		opts = append(opts, purchase.WithFulfiller(game))
		slog.Info("Уведомления игрового бэкенда включены", "url", cfg.GameAPI.URL)
	}
	coordinator := purchase.NewCoordinator(gateway, catalog, bot, opts...)
	dispatcher := telegram.NewDispatcher(bot, coordinator, catalog, cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, dispatcher, webhookLimiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("Сервер вебхука запущен и слушает", "address", addr, "webhook_path", cfg.Telegram.WebhookPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Критическая ошибка: не удалось запустить HTTP-сервер", "address", addr, "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Получен сигнал завершения, останавливаем сервер")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ошибка при остановке сервера", "error", err)
	}
	slog.Info("Сервер остановлен")
}
