package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-catalog-bot/internal/bot"
	"telegram-catalog-bot/internal/cache"
	"telegram-catalog-bot/internal/catalog"
	"telegram-catalog-bot/internal/log"
	"telegram-catalog-bot/internal/pkg/config"
	"telegram-catalog-bot/internal/server"
	"telegram-catalog-bot/internal/userstore"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с маскировкой токенов и настройками из конфига
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := log.NewMaskedLogger(handler)
	slog.SetDefault(logger)

	// Внутренний логгер библиотеки Telegram тоже ходит через маскировку.
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		slog.Warn("failed to set tgbotapi logger", slog.String("error", err.Error()))
	}

	// Хранилище пользователей
	users, err := userstore.Open(cfg.Storage.UsersPath)
	if err != nil {
		slog.Error("failed to open user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer users.Close()

	// Ожидание сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Кэш каталога с необязательной фоновой очисткой
	store := cache.NewStore()
	if cfg.Cache.CleanupIntervalMinutes > 0 {
		store.StartCleanupTicker(ctx, time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute)
	}

	// Клиент API каталога и сервисы доступа
	client := catalog.NewClient(cfg.CatalogAPI.BaseURL, cfg.CatalogAPI.AuthToken,
		time.Duration(cfg.CatalogAPI.TimeoutSeconds)*time.Second)
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	categories := catalog.NewCategories(client, store, ttl, logger.With(slog.String("component", "categories")))
	products := catalog.NewProducts(client, store, ttl, logger.With(slog.String("component", "products")))
	templates := catalog.NewTemplates(client, store, ttl, logger.With(slog.String("component", "templates")))

	b, err := bot.NewBot(cfg.Bot, categories, products, templates, users, logger.With(slog.String("component", "bot")))
	if err != nil {
		slog.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Служебный HTTP-сервер (health и управление кэшем)
	srv := server.New(cfg, store, logger.With(slog.String("component", "server")))
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	slog.Info("Bot created successfully, starting...")
	go b.Start(ctx)

	<-ctx.Done() // Ожидаем сигнал завершения

	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}

	slog.Info("Bot stopped gracefully")
}
