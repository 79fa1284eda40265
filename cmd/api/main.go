package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock_research/pkg/api"
	"stock_research/pkg/core/config"
	"stock_research/pkg/core/logging"
	"stock_research/pkg/core/research"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	godotenv.Load()

	configPath := os.Getenv("RESEARCH_CONFIG")
	if configPath == "" {
		configPath = "config/models.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv, err := api.NewServer(cfg, research.RenderPDF, logger)
	if err != nil {
		logger.Fatal("failed to build API server", zap.Error(err))
	}

	fmt.Println("  - POST /api/research/stock")
	fmt.Println("  - POST /api/research/news")
	fmt.Println("  - GET  /api/reports/{name}")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - GET  /api/health")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := api.Serve(ctx, srv, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
