package sealing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/MarcoCaspani/pdfseal/pkg/ledger"
	"github.com/MarcoCaspani/pdfseal/pkg/notify"
	"github.com/MarcoCaspani/pdfseal/pkg/pdf"
	"github.com/MarcoCaspani/pdfseal/pkg/storage"
)

type Service interface {
	Seal(ctx context.Context, order Order) (*Result, error)
}

// Stamper composites the watermark onto a master document.
type Stamper interface {
	Stamp(ctx context.Context, master []byte, text string) (*pdf.Stamped, error)
}

// Ledger records issued copies.
type Ledger interface {
	Record(ctx context.Context, issuance ledger.Issuance) error
}

// Notifier is told about every published copy.
type Notifier interface {
	NotifySealed(ctx context.Context, sealed notify.Sealed) error
}

// Config carries the storage collaborator and object locations
type Config struct {
	Storage      storage.S3Client
	Bucket       string
	MasterKey    string
	OutputPrefix string
	URLExpiry    time.Duration
}

// Option configures optional collaborators of the service
type Option func(*sealingService)

// WithLedger records every issuance in l.
func WithLedger(l Ledger) Option {
	return func(s *sealingService) { s.ledger = l }
}

// WithNotifiers adds notifiers called after a copy is published.
func WithNotifiers(n ...Notifier) Option {
	return func(s *sealingService) { s.notifiers = append(s.notifiers, n...) }
}

// WithClock overrides the time source used for the watermark date and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *sealingService) { s.now = now }
}

type sealingService struct {
	cfg       Config
	stamper   Stamper
	logger    *zap.Logger
	ledger    Ledger
	notifiers []Notifier
	now       func() time.Time
}

func NewService(cfg Config, stamper Stamper, logger *zap.Logger, opts ...Option) Service {
	s := &sealingService{
		cfg:     cfg,
		stamper: stamper,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sealingService) Seal(ctx context.Context, order Order) (*Result, error) {
	log := s.logger.With(zap.String("order_id", order.OrderID))
	log.Info("Sealing order",
		zap.String("name", order.Name),
		zap.String("email", order.Email))

	master, err := s.loadMaster(ctx)
	if err != nil {
		log.Error("Failed to load master PDF", zap.String("master_key", s.cfg.MasterKey), zap.Error(err))
		return nil, newError(KindStorage, OpLoadMaster, err)
	}
	// An empty placeholder object is the usual misconfiguration here.
	log.Info("Loaded master PDF", zap.Int("bytes", len(master)))

	now := s.now().UTC()
	stamped, err := s.stamper.Stamp(ctx, master, WatermarkText(order, now))
	if err != nil {
		kind := KindCompositionFailure
		if errors.Is(err, pdf.ErrMalformedDocument) {
			kind = KindMalformedDocument
		}
		log.Error("Failed to stamp master PDF", zap.String("kind", string(kind)), zap.Error(err))
		return nil, newError(kind, OpStamp, err)
	}

	key := s.outputKey(order)
	if err := s.cfg.Storage.Upload(ctx, s.cfg.Bucket, key, bytes.NewReader(stamped.Data)); err != nil {
		log.Error("Failed to upload stamped PDF", zap.String("key", key), zap.Error(err))
		return nil, newError(KindStorage, OpPublish, err)
	}

	url, err := s.cfg.Storage.GetPresignedURL(ctx, s.cfg.Bucket, key, s.cfg.URLExpiry)
	if err != nil {
		log.Error("Failed to presign stamped PDF", zap.String("key", key), zap.Error(err))
		return nil, newError(KindStorage, OpPresign, err)
	}

	result := &Result{
		URL:         url,
		Key:         key,
		ExpiresAt:   now.Add(s.cfg.URLExpiry),
		MasterPages: stamped.MasterPages,
		OutputPages: stamped.OutputPages,
	}
	log.Info("Published stamped PDF",
		zap.String("key", key),
		zap.Int("pages", result.OutputPages),
		zap.Time("expires_at", result.ExpiresAt))

	s.afterPublish(ctx, log, order, result, now)
	return result, nil
}

func (s *sealingService) loadMaster(ctx context.Context) ([]byte, error) {
	rc, err := s.cfg.Storage.Download(ctx, s.cfg.Bucket, s.cfg.MasterKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read master PDF: %w", err)
	}
	return data, nil
}

func (s *sealingService) outputKey(order Order) string {
	return fmt.Sprintf("%sorder-%s.pdf", s.cfg.OutputPrefix, order.OrderID)
}

// afterPublish runs the ledger and notifiers. The copy is already published,
// so their failures are logged and never fail the request.
func (s *sealingService) afterPublish(ctx context.Context, log *zap.Logger, order Order, result *Result, sealedAt time.Time) {
	if s.ledger != nil {
		err := s.ledger.Record(ctx, ledger.Issuance{
			OrderID:   order.OrderID,
			Email:     order.Email,
			Bucket:    s.cfg.Bucket,
			ObjectKey: result.Key,
			MasterKey: s.cfg.MasterKey,
			Pages:     result.OutputPages,
			SealedAt:  sealedAt,
		})
		if err != nil {
			log.Warn("Failed to record issuance", zap.Error(err))
		}
	}

	sealed := notify.Sealed{
		OrderID:   order.OrderID,
		Name:      order.Name,
		Email:     order.Email,
		ObjectKey: result.Key,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
	}
	for _, n := range s.notifiers {
		if err := n.NotifySealed(ctx, sealed); err != nil {
			log.Warn("Failed to send notification", zap.Error(err))
		}
	}
}
