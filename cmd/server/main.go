package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medifocal/catalog/config"
	"github.com/medifocal/catalog/internal/bootstrap"
	httpDelivery "github.com/medifocal/catalog/internal/delivery/http"
	"github.com/medifocal/catalog/internal/logger"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Environment: cfg.Server.Environment,
		Level:       cfg.Logging.Level,
		Service:     "medifocal-catalog",
		Version:     version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	zl.Info("starting medifocal catalog",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.String("cache_type", cfg.Cache.Type))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	deps, err := bootstrap.Build(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("init infrastructure: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			zl.Warn("closing infrastructure", zap.Error(err))
		}
	}()

	// Initialize usecase layer
	catalogService := deps.CatalogService(cfg, zl)

	handler := httpDelivery.NewHandler(catalogService, cfg.Search.DefaultLimit)
	router := httpDelivery.SetupRouter(cfg, handler, zl)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
