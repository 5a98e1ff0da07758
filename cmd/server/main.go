package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/materials-mis/internal/api"
	"github.com/Spok95/materials-mis/internal/config"
	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/domain/materials"
	"github.com/Spok95/materials-mis/internal/domain/movements"
	"github.com/Spok95/materials-mis/internal/domain/reports"
	"github.com/Spok95/materials-mis/internal/infra/db"
	httpx "github.com/Spok95/materials-mis/internal/infra/http"
	"github.com/Spok95/materials-mis/internal/infra/logger"
	"github.com/Spok95/materials-mis/internal/infra/notify"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	balancesRepo := balances.NewRepo(pool)
	materialsRepo := materials.NewRepo(pool)
	movementsRepo := movements.NewRepo(pool, balancesRepo)
	reportsRepo := reports.NewRepo(pool)

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}
	var notifier api.Notifier
	if tg != nil {
		notifier = tg
		log.Info("low stock alerts enabled", "chat_id", cfg.Telegram.AdminChatID)
	}

	a := api.New(log, materialsRepo, balancesRepo, movementsRepo, reportsRepo, notifier)
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, a, cfg.HTTP.CORSOrigins)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
