package host

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/sprout"
)

const (
	nodeSize     = 80.0 // pixels per unit of scale
	worldUnit    = 90.0 // pixels per unit of position
	depthFalloff = 0.15
	promptHeight = 28
)

// whitePixel is a 1x1 white image scaled and tinted for every shape.
var whitePixel *ebiten.Image

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(toRGBA(g.cfg.ClearColor))

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h-promptHeight)/2

	recs := g.session.Registry().All()
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Node.Position.Z < recs[j].Node.Position.Z
	})
	selected := g.session.Selected()
	for _, rec := range recs {
		if rec.Node == nil || !rec.Node.Visible {
			continue
		}
		g.drawNode(screen, rec, cx, cy, rec == selected)
	}

	g.drawPrompt(screen, w, h)
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.1f TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()), 4, 4)
	}
}

// project maps a node to screen space: position scaled by worldUnit around
// the center, with a simple depth factor on Z.
func project(n *sprout.Node, cx, cy float64) (x, y, sx, sy float64) {
	depth := 1 / (1 - n.Position.Z*depthFalloff)
	depth = math.Max(0.3, math.Min(depth, 3))
	x = cx + n.Position.X*worldUnit*depth
	y = cy - n.Position.Y*worldUnit*depth
	sx = n.Scale.X * nodeSize * depth * math.Cos(n.Rotation.Y)
	sy = n.Scale.Y * nodeSize * depth
	return x, y, sx, sy
}

// shade is the color a node is drawn with: base color, emissive added on
// top, desaturated by Saturation, with Opacity as alpha.
func shade(m *sprout.Material) sprout.Color {
	if m == nil {
		return sprout.ColorWhite
	}
	c := sprout.ColorWhite
	if m.Has(sprout.ChannelColor) {
		c = m.Color
	}
	if m.Has(sprout.ChannelEmissive) && m.EmissiveIntensity > 0 {
		k := math.Min(m.EmissiveIntensity, 3) / 3
		c = c.Lerp(m.Emissive, k)
	}
	if m.Has(sprout.ChannelTexture) && m.Saturation < 1 {
		c = c.Gray().Lerp(c, math.Max(m.Saturation, 0))
	}
	if m.Has(sprout.ChannelSurface) && m.Metalness > 0 {
		c = c.Lerp(sprout.Color{R: 0.85, G: 0.87, B: 0.9, A: c.A}, m.Metalness*0.4)
	}
	c.A = 1
	if m.Has(sprout.ChannelOpacity) {
		c.A = m.Opacity
	}
	return c
}

func (g *Game) drawNode(screen *ebiten.Image, rec *sprout.Record, cx, cy float64, selected bool) {
	n := rec.Node
	x, y, sx, sy := project(n, cx, cy)
	c := shade(n.Material)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(-sx/2, -sy/2)
	op.GeoM.Rotate(n.Rotation.Z)
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	screen.DrawImage(whitePixel, op)

	if selected {
		drawFrame(screen, x, y, math.Abs(sx)+6, math.Abs(sy)+6, sprout.Color{R: 1, G: 0.85, B: 0.2, A: 1})
	}

	label := rec.ID
	if rec.Status != sprout.StatusReady {
		label += " [" + rec.Status.String() + "]"
	}
	g.drawText(screen, label, x-math.Abs(sx)/2, y+math.Abs(sy)/2+4)
}

func drawFrame(screen *ebiten.Image, x, y, w, h float64, c sprout.Color) {
	const t = 2
	rect := func(rx, ry, rw, rh float64) {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(rw, rh)
		op.GeoM.Translate(rx, ry)
		op.ColorScale.ScaleWithColor(toRGBA(c))
		screen.DrawImage(whitePixel, op)
	}
	left, top := x-w/2, y-h/2
	rect(left, top, w, t)
	rect(left, top+h-t, w, t)
	rect(left, top, t, h)
	rect(left+w-t, top, t, h)
}

func (g *Game) drawPrompt(screen *ebiten.Image, w, h int) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w), promptHeight)
	op.GeoM.Translate(0, float64(h-promptHeight))
	op.ColorScale.Scale(0, 0, 0, 0.6)
	screen.DrawImage(whitePixel, op)

	lineH := 16.0
	if g.face != nil {
		lineH = g.cfg.FontSize + 4
	}
	for i, line := range g.log {
		y := float64(h-promptHeight) - float64(len(g.log)-i)*lineH - 4
		g.drawText(screen, line, 8, y)
	}
	g.drawText(screen, "> "+string(g.input)+"_", 8, float64(h-promptHeight)+6)
}

// drawText uses the configured font when there is one; the debug font has
// no Japanese glyphs.
func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64) {
	if g.face == nil {
		ebitenutil.DebugPrintAt(screen, s, int(x), int(y))
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(0.9, 0.9, 0.9, 1)
	text.Draw(screen, s, g.face, op)
}

func toRGBA(c sprout.Color) color.RGBA {
	clamp := func(v float64) uint8 {
		return uint8(math.Max(0, math.Min(v, 1))*255 + 0.5)
	}
	return color.RGBA{R: clamp(c.R * c.A), G: clamp(c.G * c.A), B: clamp(c.B * c.A), A: clamp(c.A)}
}
