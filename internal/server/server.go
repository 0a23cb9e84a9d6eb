package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-catalog-bot/internal/cache"
	"telegram-catalog-bot/internal/pkg/config"
)

// Server — управляющий HTTP-сервер: проверка работоспособности
// и обслуживание кэша.
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	cacheStore *cache.Store
	logger     *slog.Logger
}

// New создает новый экземпляр Server
func New(cfg *config.Config, cacheStore *cache.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		cacheStore: cacheStore,
		logger:     logger,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Обслуживание кэша, закрыто Bearer-токеном
	chiRouter.Route("/cache", func(r chi.Router) {
		r.Use(s.bearerAuth)

		// Полный сброс кэша
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			cleared := s.cacheStore.Clear()
			s.logger.Info("cache cleared", slog.Int("entries", cleared))
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Cache cleared successfully",
				"cleared": cleared,
			})
		})

		// Статистика кэша: число записей и список ключей
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			keys := s.cacheStore.Keys("")
			writeJSON(w, http.StatusOK, map[string]any{
				"totalEntries": len(keys),
				"keys":         keys,
			})
		})
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start запускает сервер и блокируется до его остановки.
func (s *Server) Start() error {
	s.logger.Info("management server listening", slog.String("addr", s.HTTPServer.Addr))
	if err := s.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("management server failed: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}

// bearerAuth пропускает запрос только с настроенным Bearer-токеном.
// Без настроенного токена управляющие конечные точки недоступны вовсе.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Server.AuthToken
		if token == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "management token is not configured"})
			return
		}

		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || provided != token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing bearer token"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
