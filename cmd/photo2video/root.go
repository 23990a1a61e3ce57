package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/config"
)

type commandContext struct {
	logLevel   string
	logFormat  string
	ffmpegPath string

	logger *logrus.Logger
}

func (c *commandContext) log() *logrus.Logger {
	if c.logger == nil {
		c.logger = config.NewLogger(c.logLevel, c.logFormat)
	}
	return c.logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "photo2video",
		Short:         "Turn a single photo into a Ken Burns video",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&ctx.ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")

	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newPresetCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
