package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testS3Config(endpoint string) S3Config {
	return S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrS3NotConfigured)
}

func TestS3Publisher_URL(t *testing.T) {
	p, err := NewS3Publisher(context.Background(), testS3Config(""))
	require.NoError(t, err)
	assert.Equal(t, "https://test-bucket.s3.us-east-1.amazonaws.com/videos/a.mp4", p.URL("videos/a.mp4"))

	p, err = NewS3Publisher(context.Background(), testS3Config("http://localhost:4566/"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566/test-bucket/videos/a.mp4", p.URL("videos/a.mp4"))
}

func TestS3Publisher_Publish_MockServer(t *testing.T) {
	var puts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/test-bucket/videos/video_1.mp4"), r.URL.Path)
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		atomic.AddInt32(&puts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "video_1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))

	p, err := NewS3Publisher(context.Background(), testS3Config(server.URL))
	require.NoError(t, err)

	url, err := p.Publish(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/test-bucket/videos/video_1.mp4", url)
	assert.Equal(t, int32(1), atomic.LoadInt32(&puts))
}

func TestS3Publisher_PublishMissingFile(t *testing.T) {
	p, err := NewS3Publisher(context.Background(), testS3Config("http://127.0.0.1:1"))
	require.NoError(t, err)
	_, err = p.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.Error(t, err)
}
