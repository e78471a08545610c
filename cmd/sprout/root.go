package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phanxgames/sprout"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sprout",
		Short: "Edit a scene with plain sentences",
		Long: fmt.Sprintf(`%s

Type sentences in Japanese or English to create, select, modify and delete
objects. Deletes ask for confirmation.

%s
  sprout                              # interactive prompt
  sprout classify 赤くして            # show how a sentence is read
  sprout replay demo.yaml             # run a command script
  sprout window --font NotoSansJP.ttf # open a window`,
			bold("sprout"), bold("EXAMPLES:")),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sc, w, err := cfg.sessionConfig()
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Close()
			}
			return runInteractive(cmd, sc, w)
		},
	}
	addConfigFlags(root)

	root.AddCommand(newClassifyCommand())
	root.AddCommand(newReplayCommand())
	root.AddCommand(newWindowCommand())
	return root
}

func runInteractive(cmd *cobra.Command, sc sprout.SessionConfig, w *sprout.DictionaryWatcher) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold("sprout")+" - type a sentence, :help for commands, :quit to leave")

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".sprout-history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("> "),
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         ":quit",
		HistorySearchFold: true,
		UniqueEditLine:    true,
		Stdin:             readline.NewCancelableStdin(os.Stdin),
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	sh := newShell(sc, w, rl.Stdout())
	return sh.loop(cmd.Context(), rl)
}
