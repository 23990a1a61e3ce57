// Package job tracks render requests through their lifecycle and runs them on
// a fixed number of worker slots.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the job is waiting for a worker slot.
	StatusQueued Status = "QUEUED"
	// StatusRunning indicates the job is being rendered.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the video was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the render failed; Error holds the reason.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusRunning, StatusFailed},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is one image-to-video request.
type Job struct {
	mu sync.RWMutex

	ID     string
	Status Status
	// Progress is the percentage of frames written (0-100).
	Progress int
	Error    string

	InputPath  string
	OutputPath string
	// VideoURL is where the finished video can be fetched.
	VideoURL string
	Duration float64
	Frames   int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	cause error
}

// New creates a queued job with a random ID.
func New(inputPath string, duration float64) *Job {
	return NewWithID(uuid.NewString(), inputPath, duration)
}

// NewWithID creates a queued job with the given ID.
func NewWithID(id, inputPath string, duration float64) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Status:    StatusQueued,
		InputPath: inputPath,
		Duration:  duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo changes the status, or returns ErrInvalidTransition.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// Start moves a queued job to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete records the output and moves the job to COMPLETED.
func (j *Job) Complete(out Output) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.OutputPath = out.OutputPath
	j.VideoURL = out.VideoURL
	j.Frames = out.Frames
	j.Progress = 100
	return nil
}

// Fail records err and moves the job to FAILED.
func (j *Job) Fail(err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if terr := j.transitionLocked(StatusFailed); terr != nil {
		return terr
	}
	j.cause = err
	if err != nil {
		j.Error = err.Error()
	}
	return nil
}

// Err returns the error the job failed with.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cause
}

// UpdateProgress sets the progress percentage, clamped to 0-100.
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress = min(max(progress, 0), 100)
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status.
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal reports whether the job is COMPLETED or FAILED.
func (j *Job) IsTerminal() bool {
	s := j.GetStatus()
	return s == StatusCompleted || s == StatusFailed
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Progress:    j.Progress,
		Error:       j.Error,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		VideoURL:    j.VideoURL,
		Duration:    j.Duration,
		Frames:      j.Frames,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		cause:       j.cause,
	}
}
