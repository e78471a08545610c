// Package host runs a sprout Session inside an Ebitengine window: a text
// prompt at the bottom, the scene drawn as flat shapes above it, and the
// effect loop driven by the game's ticks.
package host

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/sprout"
)

const maxLogLines = 8

// RunConfig configures the window. Zero values take defaults.
type RunConfig struct {
	Title      string  // window title, default "sprout"
	Width      int     // default 960
	Height     int     // default 640
	ShowFPS    bool    // draw FPS/TPS in the corner
	FontTTF    []byte  // TrueType/OpenType data for Japanese text; debug font when nil
	FontSize   float64 // default 18
	ClearColor sprout.Color

	// Watcher, when set, is polled every tick and swaps in the reloaded
	// dictionary.
	Watcher *sprout.DictionaryWatcher
}

func (c *RunConfig) defaults() {
	if c.Title == "" {
		c.Title = "sprout"
	}
	if c.Width == 0 {
		c.Width = 960
	}
	if c.Height == 0 {
		c.Height = 640
	}
	if c.FontSize == 0 {
		c.FontSize = 18
	}
	if c.ClearColor == (sprout.Color{}) {
		c.ClearColor = sprout.Color{R: 0.118, G: 0.118, B: 0.157, A: 1}
	}
}

// Game is an ebiten.Game that owns a Session and its Frames.
type Game struct {
	cfg     RunConfig
	ctx     context.Context
	session *sprout.Session
	frames  *Frames
	face    *text.GoTextFace

	input []rune
	log   []string
}

// NewGame creates a Game. sessCfg.Frames is replaced by the game's own
// frame source.
func NewGame(ctx context.Context, cfg RunConfig, sessCfg sprout.SessionConfig) (*Game, error) {
	cfg.defaults()
	g := &Game{cfg: cfg, ctx: ctx, frames: &Frames{}}
	sessCfg.Frames = g.frames
	g.session = sprout.NewSession(sessCfg)

	if cfg.FontTTF != nil {
		source, err := text.NewGoTextFaceSource(bytes.NewReader(cfg.FontTTF))
		if err != nil {
			return nil, fmt.Errorf("host: failed to parse font: %w", err)
		}
		g.face = &text.GoTextFace{Source: source, Size: cfg.FontSize}
	}
	return g, nil
}

// Session returns the game's session.
func (g *Game) Session() *sprout.Session {
	return g.session
}

// Run opens the window and blocks until it closes.
func Run(ctx context.Context, cfg RunConfig, sessCfg sprout.SessionConfig) error {
	g, err := NewGame(ctx, cfg, sessCfg)
	if err != nil {
		return err
	}
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.readInput()

	for _, out := range g.session.Poll() {
		g.report(out)
	}
	if g.cfg.Watcher != nil {
		if err := g.session.PollDictionary(g.cfg.Watcher); err != nil {
			g.logf("! dictionary: %v", err)
		}
	}

	g.frames.step(1 / float64(ebiten.TPS()))
	return nil
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *Game) readInput() {
	g.input = ebiten.AppendInputChars(g.input)

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(g.input) > 0 {
		g.input = g.input[:len(g.input)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.session.Cancel() == nil {
			g.logf("cancelled")
		}
		g.session.ClearSelection()
	}
	if !inpututil.IsKeyJustPressed(ebiten.KeyEnter) && !inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		return
	}

	line := strings.TrimSpace(string(g.input))
	g.input = g.input[:0]
	g.submit(line)
}

// submit handles one entered line. While a delete waits for confirmation,
// a yes/no answer confirms or cancels it; anything else is a new command.
func (g *Game) submit(line string) {
	if g.session.PendingDelete() != nil {
		switch strings.ToLower(line) {
		case "y", "yes", "はい", "ok":
			g.report(g.session.Confirm())
			return
		case "n", "no", "いいえ":
			_ = g.session.Cancel()
			g.logf("cancelled")
			return
		}
	}
	if line == "" {
		return
	}
	g.logf("> %s", line)
	g.report(g.session.Submit(g.ctx, line))
}

func (g *Game) report(out sprout.Outcome) {
	switch {
	case out.Err != nil && out.Message != "":
		g.logf("! %s (%s)", out.Message, sprout.ErrorCode(out.Err))
	case out.Err != nil:
		g.logf("! %v", out.Err)
	case out.Pending && out.Command.RequiresConfirmation:
		g.logf("%s [y/n]", out.Message)
	case out.Message != "":
		g.logf("%s", out.Message)
	}
}

func (g *Game) logf(format string, args ...any) {
	g.log = append(g.log, fmt.Sprintf(format, args...))
	if len(g.log) > maxLogLines {
		g.log = g.log[len(g.log)-maxLogLines:]
	}
}
