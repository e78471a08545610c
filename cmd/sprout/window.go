package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/sprout/host"
)

func newWindowCommand() *cobra.Command {
	var (
		rc   host.RunConfig
		font string
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open the scene in a window",
		Args:  cobra.NoArgs,
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
				rc.Watcher = w
			}
			if font != "" {
				if rc.FontTTF, err = os.ReadFile(font); err != nil {
					return fmt.Errorf("read font: %w", err)
				}
			}
			return host.Run(cmd.Context(), rc, sc)
		},
	}
	f := cmd.Flags()
	f.StringVar(&rc.Title, "title", "sprout", "window title")
	f.IntVar(&rc.Width, "width", 960, "window width")
	f.IntVar(&rc.Height, "height", 640, "window height")
	f.BoolVar(&rc.ShowFPS, "fps", false, "show FPS/TPS")
	f.StringVar(&font, "font", "", "TrueType/OpenType font with Japanese glyphs")
	f.Float64Var(&rc.FontSize, "font-size", 18, "font size")
	return cmd
}
