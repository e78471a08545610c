package sprout

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default material color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is used as the "off" emissive color.
var ColorBlack = Color{0, 0, 0, 1}

// ColorFromHex converts a 0xRRGGBB value into an opaque Color.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float64((hex>>16)&0xff) / 255,
		G: float64((hex>>8)&0xff) / 255,
		B: float64(hex&0xff) / 255,
		A: 1,
	}
}

// Hex returns the 0xRRGGBB form of c, ignoring alpha.
func (c Color) Hex() uint32 {
	return uint32(math.Round(clamp01(c.R)*255))<<16 |
		uint32(math.Round(clamp01(c.G)*255))<<8 |
		uint32(math.Round(clamp01(c.B)*255))
}

// Lerp blends c toward to by t in [0, 1]. Alpha is blended too.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: lerp(c.R, to.R, t),
		G: lerp(c.G, to.G, t),
		B: lerp(c.B, to.B, t),
		A: lerp(c.A, to.A, t),
	}
}

// Luminance returns the Rec. 601 luma of c.
func (c Color) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// Gray returns c desaturated to its luminance, keeping alpha.
func (c Color) Gray() Color {
	l := c.Luminance()
	return Color{l, l, l, c.A}
}

// ColorFromHSV converts hue (turns, wrapped into [0, 1)), saturation and value
// into an opaque Color.
func ColorFromHSV(h, s, v float64) Color {
	h = h - math.Floor(h)
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	switch int(i) % 6 {
	case 0:
		return Color{v, t, p, 1}
	case 1:
		return Color{q, v, p, 1}
	case 2:
		return Color{p, v, t, 1}
	case 3:
		return Color{p, q, v, 1}
	case 4:
		return Color{t, p, v, 1}
	default:
		return Color{v, p, q, 1}
	}
}

// Vec3 is a 3D vector used for positions, rotations (Euler radians), scales
// and offsets. Y is the up axis.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Mul returns v scaled by s.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// RotateY rotates v about the up axis by angle radians.
func (v Vec3) RotateY(angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// SourceKind records how an object entered the scene.
type SourceKind uint8

const (
	SourceGeneratedImage SourceKind = iota // produced by an image generation request
	SourceGeneratedVideo                   // produced by a video generation request
	SourceGeneratedModel                   // produced by a 3D model generation request
	SourceImportedFile                     // loaded from a user file
)

// Generated reports whether k is one of the generated-* kinds.
func (k SourceKind) Generated() bool {
	return k != SourceImportedFile
}

func (k SourceKind) String() string {
	switch k {
	case SourceGeneratedImage:
		return "generated-image"
	case SourceGeneratedVideo:
		return "generated-video"
	case SourceGeneratedModel:
		return "generated-model"
	case SourceImportedFile:
		return "imported-file"
	default:
		return "unknown"
	}
}

// IntentType is the classified purpose of a command.
type IntentType uint8

const (
	IntentEmpty    IntentType = iota // nothing but whitespace
	IntentGenerate                   // create a new object
	IntentModify                     // change an existing object
	IntentDelete                     // remove an existing object
	IntentSelect                     // make an existing object the current selection
	IntentImport                     // bring in a user file
)

func (t IntentType) String() string {
	switch t {
	case IntentEmpty:
		return "empty"
	case IntentGenerate:
		return "generate"
	case IntentModify:
		return "modify"
	case IntentDelete:
		return "delete"
	case IntentSelect:
		return "select"
	case IntentImport:
		return "import"
	default:
		return "unknown"
	}
}

// MediaType is the best-effort guess of what a generation should produce.
type MediaType uint8

const (
	MediaImage MediaType = iota // still image (default)
	MediaVideo                  // moving image
)

func (m MediaType) String() string {
	if m == MediaVideo {
		return "video"
	}
	return "image"
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// frac returns the fractional part of v in [0, 1).
func frac(v float64) float64 {
	return v - math.Floor(v)
}
