package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eshagberg/payflow/internal/api"
	"github.com/eshagberg/payflow/internal/config"
	"github.com/eshagberg/payflow/internal/engine"
	"github.com/eshagberg/payflow/internal/service"
	"github.com/eshagberg/payflow/internal/store"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores
	accounts := store.NewAccountStore()
	results := store.NewResultStore()

	// Engine
	queue := engine.NewTransferQueue()
	executor := engine.NewExecutor(accounts)
	dispatcher := engine.NewDispatcher(queue, executor, results, cfg.WorkerCount, cfg.QueueIdleBackoff(), logger)

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(ctx)
	}()

	// Service + HTTP surface
	transfers := service.NewTransferService(queue, results, cfg.SyncWaitTimeout(), logger)
	handler := api.NewHandler(accounts, transfers, logger)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Router(handler),
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		logger.Warn("dispatcher did not stop in time")
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
