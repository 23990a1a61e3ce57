// Package storage keeps uploads and rendered videos on disk and publishes
// finished videos to where clients download them.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned for output names that do not resolve to a file.
var ErrNotFound = errors.New("file not found")

// ErrS3NotConfigured is returned when S3 publishing is requested without a bucket.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Publisher makes a finished video available and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, path string) (url string, err error)
}
