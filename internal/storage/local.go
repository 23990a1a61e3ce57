package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores uploads and rendered videos in two directories.
type LocalStorage struct {
	uploadDir string
	outputDir string
}

// NewLocalStorage creates both directories if they don't exist.
func NewLocalStorage(uploadDir, outputDir string) (*LocalStorage, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if dir == "" {
			return nil, fmt.Errorf("storage directory is empty")
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &LocalStorage{uploadDir: uploadDir, outputDir: outputDir}, nil
}

func (s *LocalStorage) UploadDir() string { return s.uploadDir }

func (s *LocalStorage) OutputDir() string { return s.outputDir }

// SaveUpload writes data to the upload directory under a uuid-prefixed name
// and returns the file path.
func (s *LocalStorage) SaveUpload(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := filepath.Join(s.uploadDir, uploadName(name))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}

func uploadName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = "upload"
	}
	return newHex() + "_" + base
}

func newHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewOutputPath reserves a fresh video_<hex>.mp4 name in the output directory.
func (s *LocalStorage) NewOutputPath() (name, path string) {
	name = "video_" + newHex() + ".mp4"
	return name, filepath.Join(s.outputDir, name)
}

// ResolveOutput maps a bare output file name to its path. Names with
// directory components are rejected.
func (s *LocalStorage) ResolveOutput(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	path := filepath.Join(s.outputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return path, nil
}

// Remove deletes the given files, ignoring ones that are already gone. It
// keeps going after a failure and returns the first error.
func (s *LocalStorage) Remove(paths ...string) error {
	var firstErr error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return firstErr
}

// LocalPublisher serves videos straight from the output directory.
type LocalPublisher struct {
	// BaseURL is the URL prefix the output directory is mounted at.
	BaseURL string
}

// NewLocalPublisher serves under baseURL, "/outputs" when empty.
func NewLocalPublisher(baseURL string) *LocalPublisher {
	if baseURL == "" {
		baseURL = "/outputs"
	}
	return &LocalPublisher{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Publish returns the URL of path under BaseURL. The file stays in place.
func (p *LocalPublisher) Publish(_ context.Context, path string) (string, error) {
	return p.BaseURL + "/" + filepath.Base(path), nil
}
