// Package app builds the sealing service and its collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/MarcoCaspani/pdfseal/internal/config"
	"github.com/MarcoCaspani/pdfseal/internal/sealing"
	"github.com/MarcoCaspani/pdfseal/pkg/ledger"
	"github.com/MarcoCaspani/pdfseal/pkg/notify"
	"github.com/MarcoCaspani/pdfseal/pkg/pdf"
	"github.com/MarcoCaspani/pdfseal/pkg/storage"
)

// App holds the wired service. Memory is set only for the memory driver so
// callers can serve its objects.
type App struct {
	Service sealing.Service
	Storage storage.S3Client
	Memory  *storage.MemoryClient
}

// New wires storage, the compositor and the optional ledger and notifiers.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{}
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg == nil {
			c, err := LoadAWSConfig(ctx, cfg.Storage)
			if err != nil {
				return aws.Config{}, err
			}
			awsCfg = &c
		}
		return *awsCfg, nil
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		mem, err := newMemoryStorage(cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.Storage, a.Memory = mem, mem
		logger.Info("Using in-memory storage", zap.String("public_base_url", mem.BaseURL))
	default:
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		a.Storage = storage.NewS3Client(c, storage.S3Options{Endpoint: cfg.Storage.Endpoint})
		logger.Info("Using S3 storage",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", c.Region))
	}

	var opts []sealing.Option
	if cfg.Ledger.Table != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		opts = append(opts, sealing.WithLedger(ledger.NewDynamoLedger(dynamodb.NewFromConfig(c), cfg.Ledger.Table)))
		logger.Info("Issuance ledger enabled", zap.String("table", cfg.Ledger.Table))
	}
	if cfg.Notify.FromAddress != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		opts = append(opts, sealing.WithNotifiers(notify.NewEmailNotifier(sesv2.NewFromConfig(c), cfg.Notify.FromAddress, logger)))
		logger.Info("Link emails enabled", zap.String("from", cfg.Notify.FromAddress))
	}
	if cfg.Notify.TopicARN != "" {
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		opts = append(opts, sealing.WithNotifiers(notify.NewTopicNotifier(sns.NewFromConfig(c), cfg.Notify.TopicARN)))
		logger.Info("Sealed events enabled", zap.String("topic_arn", cfg.Notify.TopicARN))
	}

	compositor := pdf.NewCompositor(NewRenderer(cfg.Watermark), logger)
	a.Service = sealing.NewService(sealing.Config{
		Storage:      a.Storage,
		Bucket:       cfg.Storage.Bucket,
		MasterKey:    cfg.Storage.MasterKey,
		OutputPrefix: cfg.Storage.OutputPrefix,
		URLExpiry:    cfg.Storage.URLExpiry.Duration(),
	}, compositor, logger, opts...)

	return a, nil
}

// NewRenderer returns the watermark renderer for the configured mode.
func NewRenderer(cfg config.WatermarkConfig) pdf.Renderer {
	options := pdf.DefaultWatermarkOptions()
	if cfg.Mode == config.ModeDiagonal {
		return pdf.NewDiagonalRenderer(options)
	}
	return pdf.NewHeaderRenderer(options)
}

// LoadAWSConfig resolves the shared AWS configuration. Static keys, when
// present, take precedence over the default credential chain.
func LoadAWSConfig(ctx context.Context, cfg config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	c, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return c, nil
}

func newMemoryStorage(cfg config.StorageConfig) (*storage.MemoryClient, error) {
	mem := storage.NewMemoryClient(cfg.PublicBaseURL)
	if cfg.MasterFile == "" {
		return mem, nil
	}
	data, err := os.ReadFile(cfg.MasterFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read master file: %w", err)
	}
	mem.Put(cfg.Bucket, cfg.MasterKey, data)
	return mem, nil
}
