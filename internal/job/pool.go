package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Output is what a finished task produced.
type Output struct {
	OutputPath string
	VideoURL   string
	Frames     int
}

// Task renders one job. progress reports percent complete.
type Task func(ctx context.Context, progress func(percent int)) (Output, error)

// Pool runs tasks on a fixed number of worker slots. Jobs share no state
// besides the repository; a failed job is never retried.
type Pool struct {
	repo   Repository
	sem    *semaphore.Weighted
	logger logrus.FieldLogger

	mu   sync.Mutex
	done map[string]chan struct{}
	wg   sync.WaitGroup
}

// NewPool returns a pool with workers slots (at least one).
func NewPool(repo Repository, workers int, logger logrus.FieldLogger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pool{
		repo:   repo,
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
		done:   make(map[string]chan struct{}),
	}
}

// Submit queues j and runs task on the next free slot. ctx bounds the task's
// lifetime, not the call. onDone, if not nil, runs once j is terminal even
// when task never started, and before Wait returns.
func (p *Pool) Submit(ctx context.Context, j *Job, task Task, onDone func(*Job)) error {
	if err := p.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.done[j.ID] = done
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx, j, task)
		if onDone != nil {
			onDone(j)
		}

		p.mu.Lock()
		delete(p.done, j.ID)
		p.mu.Unlock()
		close(done)
	}()
	return nil
}

func (p *Pool) run(ctx context.Context, j *Job, task Task) {
	log := p.logger.WithField("job_id", j.ID)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		_ = j.Fail(fmt.Errorf("waiting for worker: %w", err))
		p.save(j, log)
		return
	}
	defer p.sem.Release(1)

	if err := j.Start(); err != nil {
		log.WithError(err).Error("start job")
		if ferr := j.Fail(fmt.Errorf("start job: %w", err)); ferr == nil {
			p.save(j, log)
		}
		return
	}
	p.save(j, log)
	log.Info("job started")

	last := -1
	out, err := task(ctx, func(percent int) {
		if percent == last {
			return
		}
		last = percent
		j.UpdateProgress(percent)
		p.save(j, log)
	})
	if err != nil {
		_ = j.Fail(err)
		p.save(j, log)
		log.WithError(err).Warn("job failed")
		return
	}

	_ = j.Complete(out)
	p.save(j, log)
	log.WithField("frames", out.Frames).Info("job completed")
}

func (p *Pool) save(j *Job, log logrus.FieldLogger) {
	if err := p.repo.Save(context.Background(), j); err != nil {
		log.WithError(err).Error("save job")
	}
}

// Wait blocks until the job id reaches a terminal state or ctx ends, and
// returns its latest snapshot.
func (p *Pool) Wait(ctx context.Context, id string) (*Job, error) {
	p.mu.Lock()
	done, ok := p.done[id]
	p.mu.Unlock()
	if !ok {
		return p.repo.FindByID(ctx, id)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.repo.FindByID(ctx, id)
}

// Shutdown waits for every submitted job to finish.
func (p *Pool) Shutdown() {
	p.wg.Wait()
}
