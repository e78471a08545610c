package sprout

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic; sprout is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// MaterialChannels is a bitmask of the properties a Material actually carries.
// A host that renders an unlit video quad, for example, has no emissive
// channel; writes to a missing channel are skipped by the engine.
type MaterialChannels uint8

const (
	ChannelColor    MaterialChannels = 1 << iota // base color
	ChannelOpacity                               // opacity + transparency flag
	ChannelEmissive                              // emissive color + intensity
	ChannelSurface                               // metalness + roughness
	ChannelTexture                               // saturation + chroma key on a textured surface
)

// ChannelsStandard is what a lit, untextured material provides.
const ChannelsStandard = ChannelColor | ChannelOpacity | ChannelEmissive | ChannelSurface

// ChannelsTextured is what an image or video plane provides.
const ChannelsTextured = ChannelColor | ChannelOpacity | ChannelTexture

// ChromaKey keys out pixels close to Color on a textured surface.
type ChromaKey struct {
	Enabled   bool
	Color     Color
	Threshold float64
}

// Material is the surface description of a Node. Only the fields whose
// channel bit is set in Channels are meaningful.
type Material struct {
	Channels MaterialChannels

	Color       Color
	Opacity     float64
	Transparent bool

	Emissive          Color
	EmissiveIntensity float64

	Metalness float64
	Roughness float64

	Saturation float64
	ChromaKey  ChromaKey
}

// NewMaterial creates a material with the given channels and neutral values.
func NewMaterial(channels MaterialChannels) *Material {
	return &Material{
		Channels:   channels,
		Color:      ColorWhite,
		Opacity:    1,
		Emissive:   ColorBlack,
		Roughness:  1,
		Saturation: 1,
	}
}

// Has reports whether every bit in ch is present.
func (m *Material) Has(ch MaterialChannels) bool {
	return m != nil && m.Channels&ch == ch
}

// Node is the scene-side handle the engine mutates. The host scene engine
// owns rendering and reads these fields every frame; the engine only writes
// them. A single flat struct is used for all node kinds.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Transform (local). Rotation is Euler radians; Y is up.
	Position Vec3
	Rotation Vec3
	Scale    Vec3

	// Surface. Nil when the node has no material at all.
	Material *Material

	Visible bool

	// Metadata
	UserData any
	AssetURL string

	// OnDispose is called once when the node is disposed so the host can
	// release GPU resources.
	OnDispose func(*Node)

	disposed bool
}

// NewNode creates a visible node at the origin with unit scale.
func NewNode(name string, mat *Material) *Node {
	return &Node{
		ID:       nextNodeID(),
		Name:     name,
		Scale:    Vec3{1, 1, 1},
		Material: mat,
		Visible:  true,
	}
}

// --- Disposal ---

// Dispose marks the node disposed and signals the host through OnDispose.
// Calling it again is a no-op.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.ID = 0
	if n.OnDispose != nil {
		fn := n.OnDispose
		n.OnDispose = nil
		fn(n)
	}
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}
