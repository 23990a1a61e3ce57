package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
	require.NoError(t, err)
	return s
}

func TestNewLocalStorage(t *testing.T) {
	s := setupTestStorage(t)
	assert.DirExists(t, s.UploadDir())
	assert.DirExists(t, s.OutputDir())

	_, err := NewLocalStorage("", t.TempDir())
	assert.Error(t, err)
}

func TestLocalStorage_SaveUpload(t *testing.T) {
	s := setupTestStorage(t)

	t.Run("saves data under a unique name", func(t *testing.T) {
		path, err := s.SaveUpload(context.Background(), "photo.jpg", bytes.NewReader([]byte("jpeg bytes")))
		require.NoError(t, err)

		assert.Equal(t, s.UploadDir(), filepath.Dir(path))
		assert.True(t, strings.HasSuffix(path, "_photo.jpg"))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(content))

		other, err := s.SaveUpload(context.Background(), "photo.jpg", bytes.NewReader(nil))
		require.NoError(t, err)
		assert.NotEqual(t, path, other)
	})

	t.Run("strips directories from the client name", func(t *testing.T) {
		path, err := s.SaveUpload(context.Background(), "../../etc/passwd", bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Equal(t, s.UploadDir(), filepath.Dir(path))
		assert.True(t, strings.HasSuffix(path, "_passwd"))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.SaveUpload(ctx, "x.png", bytes.NewReader(nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalStorage_Outputs(t *testing.T) {
	s := setupTestStorage(t)

	name, path := s.NewOutputPath()
	assert.Regexp(t, `^video_[0-9a-f]{32}\.mp4$`, name)
	assert.Equal(t, filepath.Join(s.OutputDir(), name), path)

	_, err := s.ResolveOutput(name)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0644))
	got, err := s.ResolveOutput(name)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	for _, bad := range []string{"", ".", "..", "../uploads/x", "a/b.mp4"} {
		_, err := s.ResolveOutput(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}

	require.NoError(t, s.Remove(path, "", filepath.Join(s.OutputDir(), "gone.mp4")))
	assert.NoFileExists(t, path)
}

func TestLocalPublisher(t *testing.T) {
	url, err := NewLocalPublisher("").Publish(context.Background(), "/data/outputs/video_1.mp4")
	require.NoError(t, err)
	assert.Equal(t, "/outputs/video_1.mp4", url)

	url, _ = NewLocalPublisher("https://cdn.example.com/v/").Publish(context.Background(), "video_2.mp4")
	assert.Equal(t, "https://cdn.example.com/v/video_2.mp4", url)
}
