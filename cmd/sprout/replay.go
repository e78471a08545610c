package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/sprout"
)

func newReplayCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Run a command script and check its expectations",
		Long: `Run a JSON or YAML command script against a fresh scene, one step per
frame. Exits non-zero on the first failed expectation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			sc, _, err := cfg.sessionConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if quiet {
				out = io.Discard
			}
			return replay(cmd, data, sc, out)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report failures")
	return cmd
}

func replay(cmd *cobra.Command, data []byte, sc sprout.SessionConfig, out io.Writer) error {
	runner, err := sprout.LoadScript(data)
	if err != nil {
		return err
	}
	frames := &sprout.ManualFrames{}
	sc.Frames = frames
	s := sprout.NewSession(sc)

	sh := &shell{session: s, frames: frames, out: out}
	runner.OnOutcome = func(action string, o sprout.Outcome) {
		fmt.Fprintf(out, "%s ", gray(action))
		sh.print(o)
	}

	if err := runner.Run(cmd.Context(), s, frames, frameDT); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), green("ok"))
	return nil
}
