package sprout

import (
	"math"

	"github.com/tanema/gween/ease"
)

// EffectKind names a time-driven visual modifier.
type EffectKind uint8

const (
	EffectOpacity    EffectKind = iota // blinking opacity
	EffectGlow                         // pulsing emissive glow (tint fallback)
	EffectMaterial                     // static surface preset: metal, glass, matte
	EffectFloat                        // bob up and down
	EffectPulse                        // breathe in scale
	EffectSpin                         // rotate continuously about the up axis
	EffectSparkle                      // twinkling brightness
	EffectRainbow                      // hue cycle
	EffectCosmic                       // deep-space palette cycle
	EffectWatercolor                   // soft pastel palette cycle
	EffectChromaKey                    // key out a background color
	EffectMonochrome                   // desaturate

	effectKindCount
)

var effectKindNames = [effectKindCount]string{
	EffectOpacity:    "opacity",
	EffectGlow:       "glow",
	EffectMaterial:   "material",
	EffectFloat:      "float",
	EffectPulse:      "pulse",
	EffectSpin:       "spin",
	EffectSparkle:    "sparkle",
	EffectRainbow:    "rainbow",
	EffectCosmic:     "cosmic",
	EffectWatercolor: "watercolor",
	EffectChromaKey:  "chroma-key",
	EffectMonochrome: "monochrome",
}

func (k EffectKind) String() string {
	if k < effectKindCount {
		return effectKindNames[k]
	}
	return "unknown"
}

// ParseEffectKind converts a name such as "glow" or "chroma-key" into an
// EffectKind.
func ParseEffectKind(s string) (EffectKind, bool) {
	for i, name := range effectKindNames {
		if name == s {
			return EffectKind(i), true
		}
	}
	return 0, false
}

// EffectParams are the per-kind numeric parameters of an effect. Zero fields
// are filled from DefaultEffectParams when the effect is requested.
type EffectParams struct {
	Speed     float64 // cycles per second
	Amplitude float64 // world units for float, scale fraction for pulse, opacity drop for blink
	Intensity float64 // emissive strength, or key threshold for chroma-key
	Color     Color   // glow / sparkle / key color
	Palette   []Color // cosmic and watercolor families
	Preset    string  // material preset
}

var (
	cosmicPalette = []Color{
		ColorFromHex(0x2b0a5e), // deep violet
		ColorFromHex(0x1f4fd8), // nebula blue
		ColorFromHex(0xc42bd6), // magenta
		ColorFromHex(0x19b3a8), // teal
	}
	watercolorPalette = []Color{
		ColorFromHex(0xf7c6d9), // blush
		ColorFromHex(0xc6def7), // sky wash
		ColorFromHex(0xd4f2c4), // sage
		ColorFromHex(0xf9e7b5), // sand
	}
	chromaGreen = ColorFromHex(0x00ff00)
)

// DefaultEffectParams returns the parameters used for kind when a command
// does not say otherwise.
func DefaultEffectParams(kind EffectKind) EffectParams {
	switch kind {
	case EffectOpacity:
		return EffectParams{Speed: 1.5, Amplitude: 0.8}
	case EffectGlow:
		return EffectParams{Speed: 0.5, Intensity: 1.5, Color: ColorFromHex(0xfff2a8)}
	case EffectMaterial:
		return EffectParams{Preset: "metal"}
	case EffectFloat:
		return EffectParams{Speed: 0.4, Amplitude: 0.25}
	case EffectPulse:
		return EffectParams{Speed: 1, Amplitude: 0.15}
	case EffectSpin:
		return EffectParams{Speed: 0.25}
	case EffectSparkle:
		return EffectParams{Speed: 3, Intensity: 2, Color: ColorWhite}
	case EffectRainbow:
		return EffectParams{Speed: 0.2, Intensity: 1}
	case EffectCosmic:
		return EffectParams{Speed: 0.1, Intensity: 1.2, Palette: cosmicPalette}
	case EffectWatercolor:
		return EffectParams{Speed: 0.05, Intensity: 0.3, Palette: watercolorPalette}
	case EffectChromaKey:
		return EffectParams{Intensity: 0.4, Color: chromaGreen}
	case EffectMonochrome:
		return EffectParams{}
	default:
		return EffectParams{}
	}
}

// withDefaults fills zero fields of p from the kind's defaults.
func (p EffectParams) withDefaults(kind EffectKind) EffectParams {
	def := DefaultEffectParams(kind)
	if p.Speed == 0 {
		p.Speed = def.Speed
	}
	if p.Amplitude == 0 {
		p.Amplitude = def.Amplitude
	}
	if p.Intensity == 0 {
		p.Intensity = def.Intensity
	}
	if p.Color == (Color{}) {
		p.Color = def.Color
	}
	if len(p.Palette) == 0 {
		p.Palette = def.Palette
	}
	if p.Preset == "" {
		p.Preset = def.Preset
	}
	return p
}

// EffectKey identifies one effect instance: at most one per object and kind.
type EffectKey struct {
	ObjectID string
	Kind     EffectKind
}

// EffectInstance is one active effect bound to one record.
type EffectInstance struct {
	Key    EffectKey
	Start  float64 // seconds on the animator's frame clock
	Params EffectParams

	node *Node
}

// Kind returns the instance's effect kind.
func (e *EffectInstance) Kind() EffectKind {
	return e.Key.Kind
}

// Fields points at the mutable node fields an operation writes. It lets the
// same write be applied to a live node and to an effect base snapshot.
type Fields struct {
	Position *Vec3
	Rotation *Vec3
	Scale    *Vec3
	Material *Material // nil when there is no material
}

func (n *Node) fields() Fields {
	return Fields{Position: &n.Position, Rotation: &n.Rotation, Scale: &n.Scale, Material: n.Material}
}

// baseState is the untouched value of a node's fields, captured when its
// first effect starts. Every effect evaluates relative to it.
type baseState struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
	Material Material
	hasMat   bool
}

func captureBase(n *Node) baseState {
	b := baseState{Position: n.Position, Rotation: n.Rotation, Scale: n.Scale}
	if n.Material != nil {
		b.Material = *n.Material
		b.hasMat = true
	}
	return b
}

func (b *baseState) fields() Fields {
	f := Fields{Position: &b.Position, Rotation: &b.Rotation, Scale: &b.Scale}
	if b.hasMat {
		f.Material = &b.Material
	}
	return f
}

// supportsEffect reports whether mat has the channels kind needs. Transform
// effects need no material at all.
func supportsEffect(kind EffectKind, mat *Material) bool {
	switch kind {
	case EffectFloat, EffectPulse, EffectSpin:
		return true
	case EffectOpacity:
		return mat.Has(ChannelOpacity)
	case EffectGlow, EffectRainbow, EffectCosmic, EffectWatercolor:
		return mat.Has(ChannelEmissive) || mat.Has(ChannelColor)
	case EffectSparkle:
		return mat.Has(ChannelEmissive) || mat.Has(ChannelOpacity)
	case EffectMaterial:
		return mat.Has(ChannelSurface)
	case EffectChromaKey:
		return mat.Has(ChannelTexture)
	case EffectMonochrome:
		return mat.Has(ChannelTexture) || mat.Has(ChannelColor)
	}
	return false
}

// evaluate writes the effect's value at local time t (seconds since Start)
// onto n. It is a pure function of (kind, params, base, t).
func evaluate(kind EffectKind, p EffectParams, base *baseState, n *Node, t float64) {
	mat := n.Material
	switch kind {
	case EffectFloat:
		n.Position.Y = base.Position.Y + p.Amplitude*math.Sin(2*math.Pi*p.Speed*t)

	case EffectPulse:
		n.Scale = base.Scale.Mul(1 + p.Amplitude*easeWave(t*p.Speed))

	case EffectSpin:
		n.Rotation.Y = base.Rotation.Y + 2*math.Pi*p.Speed*t

	case EffectOpacity:
		mat.Opacity = base.Material.Opacity * (1 - p.Amplitude*easeWave(t*p.Speed))
		mat.Transparent = true

	case EffectGlow:
		v := 0.5 - 0.5*math.Cos(2*math.Pi*p.Speed*t)
		if mat.Has(ChannelEmissive) {
			mat.Emissive = p.Color
			mat.EmissiveIntensity = base.Material.EmissiveIntensity + p.Intensity*v
		} else {
			mat.Color = base.Material.Color.Lerp(p.Color, 0.6*v)
		}

	case EffectSparkle:
		tw := twinkle(t * p.Speed)
		if mat.Has(ChannelEmissive) {
			mat.Emissive = p.Color
			mat.EmissiveIntensity = base.Material.EmissiveIntensity + p.Intensity*tw
		}
		if mat.Has(ChannelOpacity) {
			mat.Opacity = base.Material.Opacity * (0.55 + 0.45*tw)
			mat.Transparent = true
		}

	case EffectRainbow:
		c := ColorFromHSV(t*p.Speed, 1, 1)
		if mat.Has(ChannelColor) {
			c.A = base.Material.Color.A
			mat.Color = c
		} else {
			mat.Emissive = c
			mat.EmissiveIntensity = p.Intensity
		}

	case EffectCosmic, EffectWatercolor:
		c := samplePalette(p.Palette, t*p.Speed)
		blend := 0.7
		if kind == EffectWatercolor {
			blend = 0.5
		}
		if mat.Has(ChannelEmissive) {
			mat.Emissive = c
			mat.EmissiveIntensity = p.Intensity * (0.75 + 0.25*math.Sin(2*math.Pi*p.Speed*t))
			if mat.Has(ChannelColor) {
				mat.Color = base.Material.Color.Lerp(c, blend*0.5)
			}
		} else {
			mat.Color = base.Material.Color.Lerp(c, blend)
		}
		if kind == EffectWatercolor && mat.Has(ChannelOpacity) {
			mat.Opacity = base.Material.Opacity * 0.85
			mat.Transparent = true
		}

	case EffectMaterial:
		applyPreset(mat, base, p.Preset)

	case EffectChromaKey:
		mat.ChromaKey = ChromaKey{Enabled: true, Color: p.Color, Threshold: p.Intensity}

	case EffectMonochrome:
		if mat.Has(ChannelTexture) {
			mat.Saturation = 0
		} else {
			mat.Color = base.Material.Color.Gray()
		}
	}
}

// restore writes back, from base, every field kind writes.
func restore(kind EffectKind, base *baseState, n *Node) {
	mat := n.Material
	bm := &base.Material
	switch kind {
	case EffectFloat:
		n.Position.Y = base.Position.Y
	case EffectPulse:
		n.Scale = base.Scale
	case EffectSpin:
		n.Rotation.Y = base.Rotation.Y
	default:
		if mat == nil || !base.hasMat {
			return
		}
		switch kind {
		case EffectOpacity:
			mat.Opacity, mat.Transparent = bm.Opacity, bm.Transparent
		case EffectGlow, EffectSparkle, EffectRainbow, EffectCosmic, EffectWatercolor:
			mat.Color = bm.Color
			mat.Emissive, mat.EmissiveIntensity = bm.Emissive, bm.EmissiveIntensity
			mat.Opacity, mat.Transparent = bm.Opacity, bm.Transparent
		case EffectMaterial:
			mat.Metalness, mat.Roughness = bm.Metalness, bm.Roughness
			mat.Opacity, mat.Transparent = bm.Opacity, bm.Transparent
		case EffectChromaKey:
			mat.ChromaKey = bm.ChromaKey
		case EffectMonochrome:
			mat.Saturation = bm.Saturation
			mat.Color = bm.Color
		}
	}
}

func applyPreset(mat *Material, base *baseState, preset string) {
	switch preset {
	case "glass":
		mat.Metalness, mat.Roughness = 0, 0.05
		if mat.Has(ChannelOpacity) {
			mat.Opacity = base.Material.Opacity * 0.4
			mat.Transparent = true
		}
	case "matte":
		mat.Metalness, mat.Roughness = 0, 1
	default:
		mat.Metalness, mat.Roughness = 1, 0.2
	}
}

// easeWave maps a phase in cycles to 0 → 1 → 0, eased in and out.
func easeWave(phase float64) float64 {
	p := frac(phase) * 2
	if p > 1 {
		p = 2 - p
	}
	return float64(ease.InOutSine(float32(p), 0, 1, 1))
}

// twinkle is smoothed value noise in [0, 1]: a hashed value per whole cycle,
// eased into the next one.
func twinkle(phase float64) float64 {
	i := math.Floor(phase)
	a, b := hash01(i), hash01(i+1)
	f := float64(ease.InOutQuad(float32(phase-i), 0, 1, 1))
	return lerp(a, b, f)
}

func hash01(x float64) float64 {
	s := math.Sin(x*12.9898) * 43758.5453
	return s - math.Floor(s)
}

// samplePalette walks the palette once per cycle, easing between neighbors.
func samplePalette(palette []Color, phase float64) Color {
	if len(palette) == 0 {
		return ColorWhite
	}
	pos := frac(phase) * float64(len(palette))
	i := int(pos)
	j := (i + 1) % len(palette)
	f := float64(ease.InOutSine(float32(pos-float64(i)), 0, 1, 1))
	return palette[i%len(palette)].Lerp(palette[j], f)
}
