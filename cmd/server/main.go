package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/config"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/logger"
	"github.com/zaqqye/apkhub_backend/internal/metrics"
	"github.com/zaqqye/apkhub_backend/internal/routes"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		zlog.Fatal("data dir open failed", zap.Error(err))
	}
	if err := database.SeedOwner(db, cfg, zlog); err != nil {
		zlog.Fatal("owner seed failed", zap.Error(err))
	}

	files, err := filestore.NewLocal(cfg.PackageDir)
	if err != nil {
		zlog.Fatal("package dir open failed", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	r := gin.New()
	routes.Register(r, routes.Deps{
		DB:      db,
		Files:   files,
		Config:  cfg,
		Log:     zlog,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("data_dir", cfg.DataDir),
			zap.String("package_dir", cfg.PackageDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("server exited with error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
