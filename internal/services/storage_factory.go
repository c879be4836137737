package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"planora-ticketing/internal/config"
)

// StorageFactory creates storage services with proper fallback configuration
type StorageFactory struct {
	config *config.Config
	logger *slog.Logger
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config, logger *slog.Logger) *StorageFactory {
	return &StorageFactory{config: cfg, logger: logger}
}

// CreateStorageService returns R2 with a local fallback, or local storage
// alone when R2 is not configured or unreachable.
func (f *StorageFactory) CreateStorageService(ctx context.Context) (StorageService, *FallbackStorageService) {
	fallback := NewFallbackStorageService(f.config.Storage.LocalPath, f.config.Server.BaseURL, f.logger)

	if !f.config.UseR2() {
		f.logger.Info("R2 not configured, using local storage", "path", f.config.Storage.LocalPath)
		return fallback, fallback
	}

	r2Service, err := NewR2Service(ctx, f.config.R2, f.logger)
	if err != nil {
		f.logger.Warn("R2 service unavailable, using local storage only", "error", err)
		return fallback, fallback
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r2Service.HealthCheck(checkCtx); err != nil {
		f.logger.Warn("R2 health check failed, using local storage only", "error", err)
		return fallback, fallback
	}

	f.logger.Info("R2 storage service initialized", "bucket", f.config.R2.BucketName)
	return NewStorageServiceWithFallback(r2Service, fallback, f.logger), fallback
}

// SetupR2Bucket creates the configured bucket
func (f *StorageFactory) SetupR2Bucket(ctx context.Context) error {
	if err := f.ValidateR2Configuration(); err != nil {
		return err
	}

	r2Service, err := NewR2Service(ctx, f.config.R2, f.logger)
	if err != nil {
		return fmt.Errorf("failed to create R2 service: %w", err)
	}

	if err := r2Service.CreateBucket(ctx); err != nil {
		return fmt.Errorf("failed to create R2 bucket: %w", err)
	}

	return r2Service.HealthCheck(ctx)
}

// ValidateR2Configuration validates the R2 configuration
func (f *StorageFactory) ValidateR2Configuration() error {
	cfg := f.config.R2

	if cfg.AccountID == "" && cfg.Endpoint == "" {
		return fmt.Errorf("R2_ACCOUNT_ID is required")
	}

	if cfg.AccessKeyID == "" {
		return fmt.Errorf("R2_ACCESS_KEY_ID is required")
	}

	if cfg.SecretAccessKey == "" {
		return fmt.Errorf("R2_SECRET_ACCESS_KEY is required")
	}

	if cfg.BucketName == "" {
		return fmt.Errorf("R2_BUCKET_NAME is required")
	}

	return nil
}
