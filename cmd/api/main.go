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

	"workspots/internal/changefeed"
	"workspots/internal/config"
	"workspots/internal/database"
	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/upload"
	"workspots/internal/domain/venue"
	"workspots/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logger.SetupDefault(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect database", "err", err)
		os.Exit(1)
	}
	models := append(auth.Models(), &profile.Profile{}, &venue.Venue{}, &upload.Object{})
	if err := database.Migrate(db, models...); err != nil {
		slog.Error("migrate", "err", err)
		os.Exit(1)
	}

	feed, err := openFeed(cfg)
	if err != nil {
		slog.Error("open change feed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := newApp(context.Background(), cfg, db, feed, reg)
	if err != nil {
		slog.Error("build app", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// hijacked WebSocket connections are not tracked by Shutdown
	app.hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
	app.close()
	if err := feed.Close(); err != nil {
		slog.Warn("close change feed", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func openFeed(cfg *config.Config) (changefeed.Broker, error) {
	if cfg.NATSURL == "" {
		slog.Info("using in-process change feed")
		return changefeed.NewMemoryBroker(), nil
	}
	return changefeed.DialNATS(cfg.NATSURL, cfg.NATSSubjectPrefix)
}
