package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/job"
	"github.com/ivlev/photo2video/internal/server"
	"github.com/ivlev/photo2video/internal/storage"
	"github.com/ivlev/photo2video/internal/system"
	"github.com/ivlev/photo2video/internal/video"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload service",
		Long:  "Run the HTTP upload service. Settings are read from the environment, optionally seeded from a .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			cfg, err := config.LoadServer(cmd.Context())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, ctx.ffmpegPath)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading settings")
	return cmd
}

func serverSpec(ctx context.Context, cfg *config.ServerConfig, ffmpegPath string) (config.OutputSpec, error) {
	spec := config.Default()
	if cfg.PresetFile != "" {
		var err error
		if spec, err = config.LoadPreset(cfg.PresetFile); err != nil {
			return spec, err
		}
	}
	spec.Duration = cfg.DefaultDuration
	spec = resolveCodec(ctx, os.Stdout, spec, ffmpegPath)
	return spec, spec.Validate()
}

func newPublisher(ctx context.Context, cfg *config.ServerConfig) (storage.Publisher, error) {
	if !cfg.S3Enabled() {
		return storage.NewLocalPublisher("/outputs"), nil
	}
	return storage.NewS3Publisher(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
}

func runServer(parent context.Context, cfg *config.ServerConfig, ffmpegPath string) error {
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	if _, err := system.CheckFFmpeg(ffmpegPath); err != nil {
		return err
	}

	spec, err := serverSpec(parent, cfg, ffmpegPath)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		return err
	}
	pub, err := newPublisher(parent, cfg)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}

	repo := job.NewMemoryRepository()
	pool := job.NewPool(repo, workers, logger)

	// Renders outlive the request that queued them but stop on shutdown.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	renderer := &server.EngineRenderer{Spec: spec, Encoder: video.NewFFmpegEncoder(ffmpegPath), Logger: logger}
	h := server.NewHandlers(jobCtx, server.Config{
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		DefaultDuration: cfg.DefaultDuration,
		MaxDuration:     cfg.MaxDuration,
	}, store, repo, pool, pub, renderer, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"workers": workers,
			"codec":   spec.Codec,
			"s3":      cfg.S3Enabled(),
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		cancelJobs()
		pool.Shutdown()
		return err
	})

	return g.Wait()
}
