package main

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/video"
)

func newProbeCommand(_ *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video>",
		Short: "Show stream information of an encoded video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := video.Probe(args[0])
			if err != nil {
				return err
			}
			printProbe(cmd.OutOrStdout(), args[0], info)
			return nil
		},
	}
}
