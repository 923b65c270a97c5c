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

	"vivebien-dashboard/internal/config"
	"vivebien-dashboard/internal/store"
	"vivebien-dashboard/pkg/logger"
	"vivebien-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// A missing or unreachable database is not fatal: the dashboard starts
	// degraded and every page renders its empty state.
	st := openStore(rootCtx, cfg, log)
	if db := st.DB(); db != nil {
		defer db.Close()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz"))

	registerRoutes(r, cfg, st)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("dashboard api listening", "addr", srv.Addr, "env", cfg.App.Env, "database", st.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) *store.Store {
	if cfg.DB.URL == "" {
		log.Warn("DATABASE_URL not set, running without a database")
		return store.New(nil, cfg.TablePrefix(), log)
	}
	db, err := utils.OpenPostgres(ctx, "pgx", cfg.DB.URL, utils.PostgresPoolConfig{})
	if err != nil {
		log.Warn("postgres unreachable, running without a database", "err", err)
		return store.New(nil, cfg.TablePrefix(), log)
	}
	return store.New(db, cfg.TablePrefix(), log)
}
