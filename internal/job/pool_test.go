package job

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(workers int) (*Pool, *MemoryRepository) {
	logger, _ := test.NewNullLogger()
	repo := NewMemoryRepository()
	return NewPool(repo, workers, logger), repo
}

func TestPool_CompletesJob(t *testing.T) {
	pool, repo := newTestPool(2)
	ctx := context.Background()
	j := New("in.jpg", 2)

	require.NoError(t, pool.Submit(ctx, j, func(_ context.Context, progress func(int)) (Output, error) {
		progress(50)
		return Output{OutputPath: "out.mp4", VideoURL: "/outputs/out.mp4", Frames: 30}, nil
	}, nil))

	done, err := pool.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, "/outputs/out.mp4", done.VideoURL)
	assert.Equal(t, 30, done.Frames)
	assert.Equal(t, 100, done.Progress)

	stored, err := repo.FindByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)

	// Waiting again after completion reads the stored snapshot.
	again, err := pool.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
}

func TestPool_RecordsFailure(t *testing.T) {
	pool, _ := newTestPool(1)
	ctx := context.Background()
	j := New("in.jpg", 2)
	cause := errors.New("invalid image")

	require.NoError(t, pool.Submit(ctx, j, func(context.Context, func(int)) (Output, error) {
		return Output{}, cause
	}, nil))

	done, err := pool.Wait(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "invalid image", done.Error)
	assert.ErrorIs(t, done.Err(), cause)
}

func TestPool_LimitsConcurrency(t *testing.T) {
	pool, _ := newTestPool(2)
	ctx := context.Background()

	var running, peak int32
	var mu sync.Mutex
	task := func(context.Context, func(int)) (Output, error) {
		n := atomic.AddInt32(&running, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return Output{}, nil
	}

	var ids []string
	for i := 0; i < 6; i++ {
		j := New("", 1)
		ids = append(ids, j.ID)
		require.NoError(t, pool.Submit(ctx, j, task, nil))
	}
	pool.Shutdown()

	assert.LessOrEqual(t, peak, int32(2))
	for _, id := range ids {
		j, err := pool.Wait(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, j.Status)
	}
}

func TestPool_WaitHonoursContext(t *testing.T) {
	pool, _ := newTestPool(1)
	release := make(chan struct{})
	j := New("", 1)

	require.NoError(t, pool.Submit(context.Background(), j, func(context.Context, func(int)) (Output, error) {
		<-release
		return Output{}, nil
	}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := pool.Wait(ctx, j.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	pool.Shutdown()
}

func TestPool_OnDoneRunsWhenTaskNeverStarts(t *testing.T) {
	pool, repo := newTestPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := New("in.jpg", 2)
	var ran, cleaned atomic.Bool
	require.NoError(t, pool.Submit(ctx, j, func(context.Context, func(int)) (Output, error) {
		ran.Store(true)
		return Output{}, nil
	}, func(done *Job) {
		assert.True(t, done.IsTerminal())
		cleaned.Store(true)
	}))

	done, err := pool.Wait(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.ErrorIs(t, done.Err(), context.Canceled)
	assert.False(t, ran.Load())
	assert.True(t, cleaned.Load())

	stored, err := repo.FindByID(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestPool_StartFailureIsRecorded(t *testing.T) {
	pool, _ := newTestPool(1)
	j := New("in.jpg", 2)
	require.NoError(t, j.Start())

	var cleaned atomic.Bool
	require.NoError(t, pool.Submit(context.Background(), j, func(context.Context, func(int)) (Output, error) {
		t.Error("task must not run")
		return Output{}, nil
	}, func(*Job) { cleaned.Store(true) }))

	done, err := pool.Wait(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.ErrorIs(t, done.Err(), ErrInvalidTransition)
	assert.True(t, cleaned.Load())
}

func TestPool_WaitUnknownJob(t *testing.T) {
	pool, _ := newTestPool(1)
	_, err := pool.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
