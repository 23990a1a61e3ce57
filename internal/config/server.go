package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/sirupsen/logrus"
)

// ServerConfig holds the settings of the HTTP host, read from the environment.
type ServerConfig struct {
	Port int `env:"PORT, default=8080"`

	UploadDir string `env:"UPLOAD_DIR, default=uploads"`
	OutputDir string `env:"OUTPUT_DIR, default=outputs"`

	// Workers is the number of jobs encoded in parallel. Zero picks a value
	// from the host CPU count.
	Workers         int     `env:"WORKERS, default=0"`
	MaxUploadMB     int64   `env:"MAX_UPLOAD_MB, default=20"`
	DefaultDuration float64 `env:"DEFAULT_DURATION, default=12"`
	MaxDuration     float64 `env:"MAX_DURATION, default=300"`
	PresetFile      string  `env:"PRESET_FILE"`

	S3Bucket           string `env:"S3_BUCKET"`
	S3Region           string `env:"S3_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	LogFormat string `env:"LOG_FORMAT, default=text"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
}

// LoadServer reads ServerConfig from the environment.
func LoadServer(ctx context.Context) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// S3Enabled reports whether finished videos are published to S3.
func (c *ServerConfig) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// MaxUploadBytes is the upload limit in bytes.
func (c *ServerConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// String masks credentials.
func (c *ServerConfig) String() string {
	return fmt.Sprintf(
		"ServerConfig{Port: %d, UploadDir: %s, OutputDir: %s, Workers: %d, MaxUploadMB: %d, DefaultDuration: %.1f, MaxDuration: %.1f, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port, c.UploadDir, c.OutputDir, c.Workers, c.MaxUploadMB, c.DefaultDuration, c.MaxDuration,
		c.S3Bucket, c.S3Region, c.LogFormat, c.LogLevel,
	)
}

// NewLogger builds a logrus logger. format is "json" or "text".
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
