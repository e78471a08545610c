package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phanxgames/sprout"
)

func newClassifyCommand() *cobra.Command {
	var selected bool
	cmd := &cobra.Command{
		Use:   "classify <sentence>...",
		Short: "Show how sentences are classified",
		Long: `Classify each argument and print its intent, confidence, matching rule,
target phrase and attribute deltas. Nothing is executed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dict := sprout.DefaultDictionary()
			if cfg.Dictionary != "" {
				if dict, err = sprout.LoadDictionaryFile(cfg.Dictionary); err != nil {
					return err
				}
			}
			c := sprout.NewClassifier(dict)
			for _, text := range args {
				writeClassification(cmd.OutOrStdout(), c.Classify(text, selected))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&selected, "selected", "s", false, "classify as if an object were selected")
	return cmd
}

func writeClassification(w io.Writer, pc sprout.ParsedCommand) {
	fmt.Fprintf(w, "%s %s\n", bold(pc.Text), gray(fmt.Sprintf("[%s]", pc.Rule)))

	flags := []string{fmt.Sprintf("media=%s", pc.Media), fmt.Sprintf("confidence=%.2f", pc.Confidence)}
	if pc.NeedsTarget {
		flags = append(flags, "needs-target")
	}
	if pc.HasExplicitTarget {
		flags = append(flags, "explicit-target")
	}
	if pc.RequiresConfirmation {
		flags = append(flags, "confirm")
	}
	fmt.Fprintf(w, "  intent  %s %s\n", green(pc.Intent.String()), gray(strings.Join(flags, " ")))
	if pc.TargetPhrase != "" {
		fmt.Fprintf(w, "  target  %s\n", cyan(pc.TargetPhrase))
	}
	if !pc.Deltas.Empty() {
		fmt.Fprintf(w, "  deltas  %s\n", pc.Deltas.String())
	}
}
