package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/MarcoCaspani/pdfseal/internal/app"
	"github.com/MarcoCaspani/pdfseal/internal/config"
	"github.com/MarcoCaspani/pdfseal/internal/gateway"
)

func main() {
	// The Lambda filesystem is read-only outside /tmp.
	api.DisableConfigDir()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Logging.Level, false)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize sealer", zap.Error(err))
	}

	logger.Info("Sealer ready",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("master_key", cfg.Storage.MasterKey),
		zap.String("watermark_mode", cfg.Watermark.Mode))

	lambda.Start(gateway.NewHandler(a.Service, logger).Handle)
}
