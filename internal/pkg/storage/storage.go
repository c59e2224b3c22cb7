package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// FileStorage keeps generated files such as month exports.
type FileStorage interface {
	// Upload stores a file and returns its cleaned key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// GetURL returns the public URL of a stored key
	GetURL(ctx context.Context, path string) (string, error)

	// Prune deletes files under dir last modified before cutoff
	Prune(ctx context.Context, dir string, cutoff time.Time) (int, error)
}
