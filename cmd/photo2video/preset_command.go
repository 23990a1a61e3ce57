package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/config"
)

func newPresetCommand(_ *commandContext) *cobra.Command {
	var flags specFlags

	cmd := &cobra.Command{
		Use:   "preset <file>",
		Short: "Write output settings to a YAML preset for --preset-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}
			if err := config.WritePreset(spec, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[+] Preset saved: %s\n", args[0])
			return nil
		},
	}

	addSpecFlags(cmd, &flags)
	return cmd
}
