package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by Download for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ErrNotSignable is returned by SignedURL when a backend cannot issue a
// private link for a key.
var ErrNotSignable = errors.New("object cannot be linked")

// PublicPrefix is the only key prefix local storage publishes under /uploads.
const PublicPrefix = "event-covers/"

// IsPublicKey reports whether key may be served without authorization.
func IsPublicKey(key string) bool {
	return strings.HasPrefix(strings.TrimPrefix(key, "/"), PublicPrefix)
}

// StorageService defines the interface for file storage operations
type StorageService interface {
	// Upload stores an object and returns its public URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Download returns the object body
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for an object
	GetURL(key string) string

	// SignedURL returns a time-limited download link
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
