package sprout

import "fmt"

// Animator is the effect registry and the shared tick loop. It keeps at most
// one EffectInstance per (object, kind), evaluates every active instance once
// per frame, and advances per-object tweens. When nothing is left to animate
// it stops requesting frames; the next RequestEffect or AddTween restarts it.
type Animator struct {
	frames FrameSource

	effects map[EffectKey]*EffectInstance
	order   []EffectKey
	bases   map[string]*baseState

	tweens []*TweenGroup
	spawns map[string]*TweenGroup

	scheduled bool
	frameFn   func(float64)
	last      float64
}

// NewAnimator creates an idle animator driven by frames.
func NewAnimator(frames FrameSource) *Animator {
	a := &Animator{
		frames:  frames,
		effects: make(map[EffectKey]*EffectInstance),
		bases:   make(map[string]*baseState),
		spawns:  make(map[string]*TweenGroup),
	}
	a.frameFn = func(elapsed float64) {
		a.scheduled = false
		a.Tick(elapsed)
	}
	return a
}

// RequestEffect starts kind on rec. Requesting a kind the object already has
// replaces its parameters and restarts its clock instead of stacking a
// second instance. Zero params fields take the kind's defaults.
func (a *Animator) RequestEffect(rec *Record, kind EffectKind, params EffectParams) error {
	if rec == nil || rec.disposed || rec.Node == nil || rec.Node.IsDisposed() {
		return ErrDisposed
	}
	if kind >= effectKindCount {
		return fmt.Errorf("sprout: unknown effect kind %d", kind)
	}
	if !supportsEffect(kind, rec.Node.Material) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedMaterial, kind, rec.ID)
	}

	params = params.withDefaults(kind)
	a.Settle(rec.ID)
	if _, ok := a.bases[rec.ID]; !ok {
		b := captureBase(rec.Node)
		a.bases[rec.ID] = &b
	}

	key := EffectKey{ObjectID: rec.ID, Kind: kind}
	now := a.frames.Now()
	if inst, ok := a.effects[key]; ok {
		inst.Params = params
		inst.Start = now
		debugf("effect %s on %s replaced", kind, rec.ID)
	} else {
		a.effects[key] = &EffectInstance{Key: key, Start: now, Params: params, node: rec.Node}
		a.order = append(a.order, key)
		debugf("effect %s on %s started", kind, rec.ID)
	}
	a.ensureRunning()
	return nil
}

// ClearEffect stops kind on rec and restores the fields it wrote. It
// reports whether an instance existed.
func (a *Animator) ClearEffect(rec *Record, kind EffectKind) bool {
	if rec == nil {
		return false
	}
	return a.remove(EffectKey{ObjectID: rec.ID, Kind: kind}, true)
}

// ClearAll stops every effect on rec, restoring its fields, and returns how
// many were removed.
func (a *Animator) ClearAll(rec *Record) int {
	if rec == nil {
		return 0
	}
	n := 0
	for _, key := range a.keysFor(rec.ID) {
		if a.remove(key, true) {
			n++
		}
	}
	return n
}

// DropObject removes every effect keyed to id without touching the node. The
// registry calls it on dispose.
func (a *Animator) DropObject(id string) {
	for _, key := range a.keysFor(id) {
		a.remove(key, false)
	}
	delete(a.bases, id)
	delete(a.spawns, id)
}

func (a *Animator) keysFor(id string) []EffectKey {
	var keys []EffectKey
	for _, key := range a.order {
		if key.ObjectID == id {
			keys = append(keys, key)
		}
	}
	return keys
}

func (a *Animator) remove(key EffectKey, restoreNode bool) bool {
	inst, ok := a.effects[key]
	if !ok {
		return false
	}
	base := a.bases[key.ObjectID]
	if restoreNode && base != nil && !inst.node.IsDisposed() {
		restore(key.Kind, base, inst.node)
	}
	delete(a.effects, key)
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	if len(a.keysFor(key.ObjectID)) == 0 {
		delete(a.bases, key.ObjectID)
	}
	debugf("effect %s on %s cleared", key.Kind, key.ObjectID)
	return true
}

// Instance returns the active instance of kind on object id.
func (a *Animator) Instance(id string, kind EffectKind) (*EffectInstance, bool) {
	inst, ok := a.effects[EffectKey{ObjectID: id, Kind: kind}]
	return inst, ok
}

// Effects returns the active instances on object id in start order.
func (a *Animator) Effects(id string) []*EffectInstance {
	var out []*EffectInstance
	for _, key := range a.order {
		if key.ObjectID == id {
			out = append(out, a.effects[key])
		}
	}
	return out
}

// Len returns the number of active effect instances.
func (a *Animator) Len() int {
	return len(a.order)
}

// AddTween registers a per-object time-based animation. Nil is ignored.
func (a *Animator) AddTween(g *TweenGroup) {
	if g == nil || g.Done {
		return
	}
	a.tweens = append(a.tweens, g)
	a.ensureRunning()
}

// AddSpawn registers g as the pop-in of object id. Until it finishes, the
// object's resting transform is g's end value rather than its live fields.
func (a *Animator) AddSpawn(id string, g *TweenGroup) {
	if g == nil || g.Done {
		return
	}
	a.spawns[id] = g
	a.AddTween(g)
}

// Settle finishes the pop-in of object id, if one is running, so the node
// holds its resting values. Effects and mutations call it before reading or
// writing the node.
func (a *Animator) Settle(id string) {
	g, ok := a.spawns[id]
	if !ok {
		return
	}
	delete(a.spawns, id)
	if !g.Done {
		g.Finish()
		debugf("spawn of %s settled", id)
	}
}

// Tweens returns the number of unfinished tweens.
func (a *Animator) Tweens() int {
	return len(a.tweens)
}

// Running reports whether the tick loop has a frame requested.
func (a *Animator) Running() bool {
	return a.scheduled
}

// RewriteBase applies fn to the base snapshot of object id, if it has active
// effects. The Mutator uses it so a mutation made while an effect runs is not
// undone on the next tick.
func (a *Animator) RewriteBase(id string, fn func(Fields)) {
	if b, ok := a.bases[id]; ok {
		fn(b.fields())
	}
}

// Tick advances every active effect and tween to the frame clock value
// elapsed (seconds). The host's render loop calls it once per frame through
// the FrameSource; calling it directly is allowed and does not schedule a
// second frame.
func (a *Animator) Tick(elapsed float64) {
	dt := elapsed - a.last
	if dt < 0 {
		dt = 0
	}
	a.last = elapsed

	for _, key := range a.order {
		inst := a.effects[key]
		n := inst.node
		if n.IsDisposed() || !supportsEffect(key.Kind, n.Material) {
			continue
		}
		evaluate(key.Kind, inst.Params, a.bases[key.ObjectID], n, elapsed-inst.Start)
	}

	if len(a.tweens) > 0 {
		live := a.tweens[:0]
		for _, g := range a.tweens {
			g.Update(float32(dt))
			if !g.Done {
				live = append(live, g)
			}
		}
		for i := len(live); i < len(a.tweens); i++ {
			a.tweens[i] = nil
		}
		a.tweens = live
		for id, g := range a.spawns {
			if g.Done {
				delete(a.spawns, id)
			}
		}
	}

	if len(a.order) == 0 && len(a.tweens) == 0 {
		debugf("tick loop idle at %.3fs", elapsed)
		return
	}
	a.schedule()
}

func (a *Animator) ensureRunning() {
	if a.scheduled {
		return
	}
	a.last = a.frames.Now()
	debugf("tick loop started at %.3fs", a.last)
	a.schedule()
}

func (a *Animator) schedule() {
	if a.scheduled {
		return
	}
	a.scheduled = true
	a.frames.RequestFrame(a.frameFn)
}
