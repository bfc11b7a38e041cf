package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/config"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/db"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/httpapi"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	authn := service.NewAuthenticator(store, cfg)

	if err := service.EnsureDefaultAccounts(ctx, store); err != nil {
		logger.Error("seeding default accounts failed", "err", err)
		os.Exit(1)
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, timetable cache disabled", "addr", cfg.RedisAddr, "err", err)
			cache = nil
		}
	}

	server := httpapi.NewServer(cfg, authn, store, cache, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("school api listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
