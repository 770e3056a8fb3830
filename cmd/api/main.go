package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/api"
	"github.com/portfolio/backend/internal/app"
	"github.com/portfolio/backend/internal/auth"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/pkg/config"
	appLogger "github.com/portfolio/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting portfolio backend")

	metrics.Init()

	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to open content store", zap.Error(err))
	}
	defer store.Close()

	llmClient, err := app.NewUpstreamClient(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	if cfg.LLM.APIKey == "" {
		appLogger.Warn("Inference API key is not set; chat requests will fail")
	}

	portfolioService := portfolio.NewService(store)

	fiberApp := api.NewApp(api.Options{
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Development:    cfg.Server.Development,
		AccessLog:      cfg.Server.AccessLog,
	}, api.Deps{
		Portfolio:  portfolioService,
		Auth:       auth.NewStatic(cfg.Admin.Username, cfg.Admin.Password),
		Generator:  llmClient,
		NewSession: app.SessionFactory(portfolioService, llmClient, cfg.Chat),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting",
		zap.String("address", addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("transport", llmClient.TransportName()),
	)

	go func() {
		if err := fiberApp.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
