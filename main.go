package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	"github.com/mrops-br/cart-api/internal/infrastructure/http"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/cart-api/internal/infrastructure/inventory"
	"github.com/mrops-br/cart-api/internal/infrastructure/notify"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/file"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/redis"
	"github.com/mrops-br/cart-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("cart-api: %v", err)
	}
}

func run() error {
	// Load configuration; a .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize OpenTelemetry
	var (
		telem *telemetry.Telemetry
		err   error
	)
	if cfg.OTLP.Enabled {
		telem, err = telemetry.NewTelemetry(&cfg.OTLP)
	} else {
		telem, err = telemetry.NewNoOpTelemetry(&cfg.OTLP)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("cart-api")
	meter := telem.MeterProvider.Meter("cart-api")
	logger := telem.Logger

	logger.Info("Starting Cart API",
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("stock_check", cfg.Cart.StockCheck),
	)

	slot, closeSlot, err := newSlot(ctx, &cfg.Storage, tracer, logger)
	if err != nil {
		return fmt.Errorf("failed to open cart storage: %w", err)
	}
	defer closeSlot()

	repo := repository.NewCartRepository(slot, cfg.Storage.Key, tracer, logger)

	catalog, err := inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout, tracer, meter, logger)
	if err != nil {
		return fmt.Errorf("failed to create inventory client: %w", err)
	}

	stockCheck, err := service.ParseStockCheck(cfg.Cart.StockCheck)
	if err != nil {
		return err
	}

	cartService := service.NewCartService(ctx, repo, catalog, stockCheck, tracer, meter, logger)

	feed := notify.NewFeed(cfg.Cart.NotificationFeed)
	notifier := notify.Multi{notify.NewLogNotifier(logger), feed}

	cartHandler := handler.NewCartHandler(cartService, notifier, feed, repo, logger)

	server := http.NewServer(&cfg.Server, cartHandler, logger, telem.MeterProvider, telem.MetricsHandler)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
	return nil
}

// newSlot opens the persistence slot selected by STORAGE_DRIVER
func newSlot(ctx context.Context, cfg *config.StorageConfig, tracer trace.Tracer, logger *slog.Logger) (repository.Slot, func(), error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memory.NewSlot(tracer, logger), func() {}, nil
	case config.StorageFile:
		slot, err := file.NewSlot(cfg.Path, tracer, logger)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() {}, nil
	case config.StorageRedis:
		slot := redis.NewSlot(cfg.RedisAddr, tracer, logger)
		if err := slot.WaitReady(ctx, 10, 5*time.Second); err != nil {
			_ = slot.Close()
			return nil, nil, err
		}
		return slot, func() { _ = slot.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
