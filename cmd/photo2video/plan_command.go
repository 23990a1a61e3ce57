package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags specFlags
	var output string

	cmd := &cobra.Command{
		Use:   "plan [image]",
		Short: "Write the per-frame camera move as YAML without encoding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			spec, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			input, err := pickInput(out, args)
			if err != nil {
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
				output = filepath.Join(defaultOutputDir, base+"_plan.yaml")
			}

			p, err := engine.NewVideoProject(spec, input, "", nil, ctx.log()).Plan()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return err
			}
			if err := plan.Write(p, output); err != nil {
				return err
			}

			fmt.Fprintf(out, "[*] Scaled %dx%d, pan envelope %dx%d px, %d frames\n",
				p.Motion.ScaledWidth, p.Motion.ScaledHeight, p.Motion.MaxDX, p.Motion.MaxDY, p.Frames())
			fmt.Fprintf(out, "[+++] Plan saved: %s\n", output)
			return nil
		},
	}

	addSpecFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Plan file path (default: "+defaultOutputDir+"/<name>_plan.yaml)")
	return cmd
}
