package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/yasuo72/recipt-backend/internal/api"
	"github.com/yasuo72/recipt-backend/internal/api/handlers"
	"github.com/yasuo72/recipt-backend/internal/repository"
	"github.com/yasuo72/recipt-backend/internal/service"
	"github.com/yasuo72/recipt-backend/pkg/cloudinary"
	"github.com/yasuo72/recipt-backend/pkg/config"
	"github.com/yasuo72/recipt-backend/pkg/crypto"
	"github.com/yasuo72/recipt-backend/pkg/logger"
	"github.com/yasuo72/recipt-backend/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting MedAssist Receipt Store service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repository
	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	if err := receiptRepo.EnsureSchema(ctx); err != nil {
		appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	// Initialize services
	vault := crypto.NewVault(cfg.Crypto.Secret, appLogger)

	uploader, err := cloudinary.NewUploader(&cfg.Cloudinary, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Cloudinary uploader", zap.Error(err))
	}

	ocrService := service.NewOCRService(&http.Client{Timeout: cfg.OCR.FetchTimeout}, appLogger)

	prompts := service.NewPromptBuilder(cfg.Prompt.Template)
	appLogger.Info("Prompt template selected", zap.String("variant", prompts.Variant()))

	llmService := service.NewLLMService(&cfg.Gemini, prompts, appLogger)

	receiptService := service.NewReceiptService(receiptRepo, ocrService, llmService, uploader, vault, appLogger)

	// Initialize handlers and router
	receiptHandler := handlers.NewReceiptHandler(receiptService, appLogger)
	app := api.SetupRouter(&cfg.Server, receiptHandler)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
