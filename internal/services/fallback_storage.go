package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FallbackStorageService keeps objects on the local filesystem. It backs
// development setups and takes over when R2 is unavailable.
type FallbackStorageService struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

// NewFallbackStorageService creates a new fallback storage service. Objects
// are published under baseURL + "/uploads/".
func NewFallbackStorageService(basePath, baseURL string, logger *slog.Logger) *FallbackStorageService {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logger.Warn("failed to create storage directory", "path", basePath, "error", err)
	}

	return &FallbackStorageService{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}
}

// BasePath is the directory objects are written to.
func (f *FallbackStorageService) BasePath() string {
	return f.basePath
}

// path resolves key below basePath, refusing keys that escape it.
func (f *FallbackStorageService) path(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if !fs.ValidPath(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.basePath, filepath.FromSlash(key)), nil
}

// Upload saves a file to local storage
func (f *FallbackStorageService) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	fullPath, err := f.path(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", size, written)
	}

	f.logger.Debug("fallback storage saved object", "key", key, "path", fullPath)
	return f.GetURL(key), nil
}

// Download reads a file from local storage
func (f *FallbackStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := f.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file %s: %w", fullPath, err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (f *FallbackStorageService) Delete(ctx context.Context, key string) error {
	fullPath, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	f.cleanupEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// GetURL returns the public URL for a file
func (f *FallbackStorageService) GetURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("%s/uploads/%s", f.baseURL, key)
}

// SignedURL returns the public URL for published keys. Local storage cannot
// sign, so private objects such as ticket PDFs get ErrNotSignable.
func (f *FallbackStorageService) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if !IsPublicKey(key) {
		return "", fmt.Errorf("%w: %s", ErrNotSignable, key)
	}
	return f.GetURL(key), nil
}

// Exists checks if a file exists in local storage
func (f *FallbackStorageService) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := f.path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check if file exists: %w", err)
	}

	return true, nil
}

// cleanupEmptyDirs removes empty directories up to the base path
func (f *FallbackStorageService) cleanupEmptyDirs(dir string) {
	if dir == f.basePath || dir == "." || dir == "/" {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}

	if err := os.Remove(dir); err == nil {
		f.cleanupEmptyDirs(filepath.Dir(dir))
	}
}

// StorageServiceWithFallback wraps a primary storage service with a fallback
type StorageServiceWithFallback struct {
	primary  StorageService
	fallback StorageService
	logger   *slog.Logger
}

// NewStorageServiceWithFallback creates a storage service with fallback capability
func NewStorageServiceWithFallback(primary, fallback StorageService, logger *slog.Logger) *StorageServiceWithFallback {
	return &StorageServiceWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Upload tries primary storage first, falls back to fallback storage on error
func (s *StorageServiceWithFallback) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	url, err := s.primary.Upload(ctx, key, reader, contentType, size)
	if err == nil {
		return url, nil
	}

	s.logger.Warn("primary storage failed, using fallback", "key", key, "error", err)

	seeker, ok := reader.(io.Seeker)
	if !ok {
		return "", fmt.Errorf("primary storage failed and cannot reset reader for fallback: %w", err)
	}
	if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("primary storage failed and reader reset failed: %w", err)
	}

	return s.fallback.Upload(ctx, key, reader, contentType, size)
}

// Download reads from primary storage, then from the fallback
func (s *StorageServiceWithFallback) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.primary.Download(ctx, key)
	if err == nil {
		return data, nil
	}

	fallbackData, fallbackErr := s.fallback.Download(ctx, key)
	if fallbackErr == nil {
		return fallbackData, nil
	}
	if errors.Is(err, ErrObjectNotFound) && errors.Is(fallbackErr, ErrObjectNotFound) {
		return nil, ErrObjectNotFound
	}
	return nil, fmt.Errorf("both storages failed - primary: %v, fallback: %v", err, fallbackErr)
}

// Delete tries to delete from both storages
func (s *StorageServiceWithFallback) Delete(ctx context.Context, key string) error {
	primaryErr := s.primary.Delete(ctx, key)
	fallbackErr := s.fallback.Delete(ctx, key)

	if primaryErr != nil && fallbackErr != nil {
		return fmt.Errorf("both storages failed - primary: %v, fallback: %v", primaryErr, fallbackErr)
	}

	return nil
}

// GetURL returns URL from primary storage
func (s *StorageServiceWithFallback) GetURL(key string) string {
	return s.primary.GetURL(key)
}

// SignedURL signs against whichever storage holds the object
func (s *StorageServiceWithFallback) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if exists, err := s.primary.Exists(ctx, key); err == nil && !exists {
		if inFallback, _ := s.fallback.Exists(ctx, key); inFallback {
			return s.fallback.SignedURL(ctx, key, expires)
		}
	}
	return s.primary.SignedURL(ctx, key, expires)
}

// Exists checks both storages
func (s *StorageServiceWithFallback) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.primary.Exists(ctx, key)
	if err == nil && exists {
		return true, nil
	}

	return s.fallback.Exists(ctx, key)
}
