package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/job"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/storage"
)

// Config holds request limits.
type Config struct {
	MaxUploadBytes  int64
	DefaultDuration float64
	// MaxDuration caps the requested clip length in seconds.
	MaxDuration float64
}

const defaultMaxDuration = 300

// Handlers serves the HTTP API.
type Handlers struct {
	cfg       Config
	store     *storage.LocalStorage
	repo      job.Repository
	pool      *job.Pool
	publisher storage.Publisher
	renderer  Renderer
	logger    logrus.FieldLogger

	// jobCtx bounds renders; it outlives the request that queued them.
	jobCtx context.Context
}

// NewHandlers wires the API to its storage, job pool and renderer. Jobs run
// under ctx.
func NewHandlers(ctx context.Context, cfg Config, store *storage.LocalStorage, repo job.Repository, pool *job.Pool, pub storage.Publisher, r Renderer, logger logrus.FieldLogger) *Handlers {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 12
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = defaultMaxDuration
	}
	return &Handlers{
		cfg:       cfg,
		store:     store,
		repo:      repo,
		pool:      pool,
		publisher: pub,
		renderer:  r,
		logger:    logger,
		jobCtx:    ctx,
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateVideo accepts a multipart upload with a "file" field and an optional
// "duration" in seconds. Bad uploads are rejected before anything is queued.
// With wait=true the response is sent once the video is ready.
func (h *Handlers) CreateVideo(c *gin.Context) {
	if h.cfg.MaxUploadBytes > 0 {
		// Allow room for the rest of the multipart body.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+1<<20)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(c)
			return
		}
		writeError(c, http.StatusBadRequest, "file is required", "MISSING_FILE")
		return
	}
	defer file.Close()

	if h.cfg.MaxUploadBytes > 0 && header.Size > h.cfg.MaxUploadBytes {
		h.tooLarge(c)
		return
	}

	duration := h.cfg.DefaultDuration
	if raw := c.PostForm("duration"); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || !validDuration(duration, h.cfg.MaxDuration) {
			writeError(c, http.StatusBadRequest,
				fmt.Sprintf("duration must be between 0 and %g seconds", h.cfg.MaxDuration), "INVALID_DURATION")
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read upload", "INVALID_UPLOAD")
		return
	}
	if mime, ok := source.Sniff(data); !ok {
		h.logger.WithField("content_type", mime).Info("rejected upload")
		writeError(c, http.StatusBadRequest, "please upload an image file", "INVALID_IMAGE")
		return
	}

	inPath, err := h.store.SaveUpload(c.Request.Context(), header.Filename, bytes.NewReader(data))
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
		return
	}

	j := job.New(inPath, duration)
	if err := h.pool.Submit(h.jobCtx, j, h.task(inPath, duration), h.removeUpload(inPath)); err != nil {
		_ = h.store.Remove(inPath)
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to queue job", "INTERNAL_ERROR")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"job_id":   j.ID,
		"size":     humanize.Bytes(uint64(len(data))),
		"duration": duration,
	}).Info("video queued")

	if wait, _ := strconv.ParseBool(c.DefaultQuery("wait", c.PostForm("wait"))); !wait {
		c.Header("Location", "/videos/"+j.ID)
		c.JSON(http.StatusAccepted, CreateVideoResponse{ID: j.ID, Status: string(job.StatusQueued)})
		return
	}

	done, err := h.pool.Wait(c.Request.Context(), j.ID)
	if err != nil {
		// The client went away; the job keeps running.
		writeError(c, http.StatusServiceUnavailable, "request ended before the video was ready", "NOT_READY")
		return
	}

	resp := toResponse(done)
	if done.GetStatus() == job.StatusFailed {
		c.JSON(statusFor(done.Err()), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// validDuration rejects NaN and infinities along with out-of-range values.
func validDuration(d, limit float64) bool {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return false
	}
	return d > 0 && d <= limit
}

func (h *Handlers) task(inPath string, duration float64) job.Task {
	return func(ctx context.Context, progress func(int)) (job.Output, error) {
		_, outPath := h.store.NewOutputPath()
		frames, err := h.renderer.Render(ctx, inPath, outPath, duration, func(done, total int) {
			progress(done * 100 / total)
		})
		if err != nil {
			return job.Output{}, err
		}

		url, err := h.publisher.Publish(ctx, outPath)
		if err != nil {
			return job.Output{}, fmt.Errorf("publish video: %w", err)
		}
		return job.Output{OutputPath: outPath, VideoURL: url, Frames: frames}, nil
	}
}

// removeUpload deletes the stored upload once its job is terminal, including
// jobs that never got a worker.
func (h *Handlers) removeUpload(inPath string) func(*job.Job) {
	return func(j *job.Job) {
		if err := h.store.Remove(inPath); err != nil {
			h.logger.WithError(err).WithField("job_id", j.ID).Warn("remove upload")
		}
	}
}

func (h *Handlers) tooLarge(c *gin.Context) {
	writeError(c, http.StatusBadRequest,
		fmt.Sprintf("file is larger than %s", humanize.Bytes(uint64(h.cfg.MaxUploadBytes))), "FILE_TOO_LARGE")
}

func (h *Handlers) GetVideo(c *gin.Context) {
	j, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to load job", "INTERNAL_ERROR")
		return
	}
	c.JSON(http.StatusOK, toResponse(j))
}

func (h *Handlers) ListVideos(c *gin.Context) {
	jobs, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
		return
	}
	resp := make([]VideoResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toResponse(j))
	}
	c.JSON(http.StatusOK, resp)
}

// Download sends a finished video as an attachment.
func (h *Handlers) Download(c *gin.Context) {
	name := c.Param("name")
	path, err := h.store.ResolveOutput(name)
	if err != nil {
		writeError(c, http.StatusNotFound, "file not found", "NOT_FOUND")
		return
	}
	c.Header("Content-Type", "video/mp4")
	c.FileAttachment(path, name)
}

func toResponse(j *job.Job) VideoResponse {
	j = j.Clone()
	resp := VideoResponse{
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Duration: j.Duration,
		Frames:   j.Frames,
		VideoURL: j.VideoURL,
	}
	if j.Status == job.StatusFailed {
		resp.Error = userMessage(j.Err(), j.Error)
		resp.Code = errorCode(j.Err())
	}
	return resp
}

func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindInvalidInput, engine.KindInvalidSpec:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch engine.KindOf(err) {
	case engine.KindInvalidInput:
		return "INVALID_IMAGE"
	case engine.KindInvalidSpec:
		return "INVALID_SETTINGS"
	case engine.KindEncodingFailure:
		return "ENCODING_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

func userMessage(err error, detail string) string {
	switch engine.KindOf(err) {
	case engine.KindInvalidInput:
		return "the uploaded file could not be read as an image"
	case engine.KindInvalidSpec:
		return "the requested video settings are invalid: " + detail
	case engine.KindEncodingFailure:
		return "the video could not be encoded"
	default:
		return "video creation failed: " + detail
	}
}

func writeError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}
