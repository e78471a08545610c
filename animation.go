package sprout

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 float64 fields on a Node simultaneously.
// Create one via the convenience constructors (TweenScale, TweenPosition,
// TweenOpacity) and hand it to Animator.AddTween, which advances it every
// tick. If the target node is disposed, the group stops immediately.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	fields [3]*float64
	to     [3]float64
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. If the target node has been disposed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Finish jumps every field to its end value and marks the group done. A
// group whose target was disposed is only marked done.
func (g *TweenGroup) Finish() {
	if g.Done {
		return
	}
	g.Done = true
	if g.target != nil && g.target.IsDisposed() {
		return
	}
	for i := 0; i < g.count; i++ {
		*g.fields[i] = g.to[i]
	}
}

// TweenScale creates a TweenGroup that animates node.Scale from its current
// value to the given target over the specified duration.
func TweenScale(node *Node, to Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenVec(node, &node.Scale, to, duration, fn)
}

// TweenPosition creates a TweenGroup that animates node.Position to the given
// target over the specified duration.
func TweenPosition(node *Node, to Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenVec(node, &node.Position, to, duration, fn)
}

// TweenOpacity creates a TweenGroup that animates the material opacity. It
// returns nil if the node has no opacity channel.
func TweenOpacity(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	if !node.Material.Has(ChannelOpacity) {
		return nil
	}
	m := node.Material
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(m.Opacity), float32(to), duration, fn)
	g.fields[0] = &m.Opacity
	g.to[0] = to
	return g
}

func tweenVec(node *Node, v *Vec3, to Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3, target: node}
	g.tweens[0] = gween.New(float32(v.X), float32(to.X), duration, fn)
	g.tweens[1] = gween.New(float32(v.Y), float32(to.Y), duration, fn)
	g.tweens[2] = gween.New(float32(v.Z), float32(to.Z), duration, fn)
	g.fields[0] = &v.X
	g.fields[1] = &v.Y
	g.fields[2] = &v.Z
	g.to = [3]float64{to.X, to.Y, to.Z}
	return g
}

// spawnTween pops a freshly created node in from nothing to its current scale.
func spawnTween(node *Node, duration float32) *TweenGroup {
	to := node.Scale
	node.Scale = Vec3{}
	return TweenScale(node, to, duration, ease.OutBack)
}
