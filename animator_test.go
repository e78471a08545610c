package sprout

import (
	"errors"
	"math"
	"testing"
)

func newAnimated(t *testing.T, ch MaterialChannels) (*ManualFrames, *Registry, *Animator, *Record) {
	t.Helper()
	frames := &ManualFrames{}
	reg := newTestRegistry()
	anim := NewAnimator(frames)
	reg.SetEffects(anim)
	id := reg.Create(SourceGeneratedImage, "orb", NewNode("", NewMaterial(ch)))
	rec, _ := reg.Get(id)
	return frames, reg, anim, rec
}

func TestRequestEffectIsIdempotentPerKind(t *testing.T) {
	frames, _, anim, rec := newAnimated(t, ChannelsStandard)

	if err := anim.RequestEffect(rec, EffectGlow, EffectParams{Intensity: 1}); err != nil {
		t.Fatal(err)
	}
	frames.Run(30, 1.0/60)
	if err := anim.RequestEffect(rec, EffectGlow, EffectParams{Intensity: 3}); err != nil {
		t.Fatal(err)
	}

	if anim.Len() != 1 {
		t.Errorf("Len = %d, want 1", anim.Len())
	}
	if n := len(anim.Effects(rec.ID)); n != 1 {
		t.Errorf("Effects(%s) = %d instances, want 1", rec.ID, n)
	}
	inst, ok := anim.Instance(rec.ID, EffectGlow)
	if !ok {
		t.Fatal("glow instance missing")
	}
	if inst.Params.Intensity != 3 {
		t.Errorf("Intensity = %v, want the replacement 3", inst.Params.Intensity)
	}
	if inst.Start != frames.Now() {
		t.Errorf("Start = %v, want restarted at %v", inst.Start, frames.Now())
	}
}

func TestDistinctKindsStack(t *testing.T) {
	_, _, anim, rec := newAnimated(t, ChannelsStandard)
	for _, k := range []EffectKind{EffectGlow, EffectSpin, EffectFloat} {
		if err := anim.RequestEffect(rec, k, EffectParams{}); err != nil {
			t.Fatalf("RequestEffect(%s): %v", k, err)
		}
	}
	if anim.Len() != 3 {
		t.Errorf("Len = %d, want 3", anim.Len())
	}
}

func TestDisposeRemovesEffects(t *testing.T) {
	frames, reg, anim, rec := newAnimated(t, ChannelsStandard)
	anim.RequestEffect(rec, EffectSpin, EffectParams{})
	anim.RequestEffect(rec, EffectGlow, EffectParams{})
	frames.Run(5, 1.0/60)

	node := rec.Node
	if !reg.Dispose(rec.ID) {
		t.Fatal("Dispose returned false")
	}
	if anim.Len() != 0 {
		t.Errorf("Len = %d after dispose, want 0", anim.Len())
	}
	if _, ok := anim.Instance(rec.ID, EffectSpin); ok {
		t.Error("spin instance survived dispose")
	}

	rot := node.Rotation
	frames.Run(5, 1.0/60)
	if node.Rotation != rot {
		t.Error("a tick wrote to the disposed node")
	}
	if frames.Pending() {
		t.Error("tick loop still running with nothing to animate")
	}

	if reg.Dispose(rec.ID) {
		t.Error("second Dispose returned true")
	}
	if err := anim.RequestEffect(rec, EffectSpin, EffectParams{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("RequestEffect on disposed = %v, want ErrDisposed", err)
	}
}

func TestTickLoopStopsAndRestarts(t *testing.T) {
	frames, _, anim, rec := newAnimated(t, ChannelsStandard)
	if anim.Running() {
		t.Fatal("new animator should be idle")
	}

	anim.RequestEffect(rec, EffectSpin, EffectParams{})
	if !anim.Running() || !frames.Pending() {
		t.Fatal("RequestEffect should start the loop")
	}
	frames.Run(3, 1.0/60)
	if !anim.Running() {
		t.Error("loop stopped while an effect is active")
	}

	if n := anim.ClearAll(rec); n != 1 {
		t.Errorf("ClearAll = %d, want 1", n)
	}
	frames.Advance(1.0 / 60)
	if anim.Running() || frames.Pending() {
		t.Error("loop still scheduled after the last effect was cleared")
	}

	anim.RequestEffect(rec, EffectFloat, EffectParams{})
	if !anim.Running() {
		t.Error("loop did not restart")
	}
}

func TestClearEffectRestoresFields(t *testing.T) {
	frames, _, anim, rec := newAnimated(t, ChannelsStandard)
	rec.Node.Rotation.Y = 0.5
	anim.RequestEffect(rec, EffectSpin, EffectParams{})
	frames.Run(20, 1.0/60)
	if rec.Node.Rotation.Y == 0.5 {
		t.Fatal("spin did not rotate")
	}
	if !anim.ClearEffect(rec, EffectSpin) {
		t.Fatal("ClearEffect returned false")
	}
	if rec.Node.Rotation.Y != 0.5 {
		t.Errorf("Rotation.Y = %v, want restored 0.5", rec.Node.Rotation.Y)
	}
	if anim.ClearEffect(rec, EffectSpin) {
		t.Error("second ClearEffect returned true")
	}
}

func TestGlowEmissiveBranch(t *testing.T) {
	frames, _, anim, rec := newAnimated(t, ChannelsStandard)
	anim.RequestEffect(rec, EffectGlow, EffectParams{})
	frames.Advance(1) // half a cycle at the default 0.5 Hz: peak

	m := rec.Node.Material
	want := DefaultEffectParams(EffectGlow).Intensity
	if math.Abs(m.EmissiveIntensity-want) > 1e-9 {
		t.Errorf("EmissiveIntensity = %v, want %v", m.EmissiveIntensity, want)
	}
	if m.Color != ColorWhite {
		t.Errorf("Color = %+v, want untouched base color", m.Color)
	}
}

func TestGlowColorFallbackStillPulses(t *testing.T) {
	frames, _, anim, rec := newAnimated(t, ChannelsTextured)
	if err := anim.RequestEffect(rec, EffectGlow, EffectParams{}); err != nil {
		t.Fatalf("glow on a textured plane: %v", err)
	}

	frames.Advance(1) // peak
	peak := rec.Node.Material.Color
	frames.Advance(1) // back to the start of the cycle
	trough := rec.Node.Material.Color

	if peak == ColorWhite {
		t.Error("fallback glow did not tint the base color at its peak")
	}
	if math.Abs(trough.B-1) > 1e-9 {
		t.Errorf("color at cycle start = %+v, want back to base", trough)
	}
}

func TestUnsupportedEffect(t *testing.T) {
	_, _, anim, rec := newAnimated(t, ChannelsStandard)
	err := anim.RequestEffect(rec, EffectChromaKey, EffectParams{})
	if !errors.Is(err, ErrUnsupportedMaterial) {
		t.Errorf("chroma key on untextured = %v, want ErrUnsupportedMaterial", err)
	}
	if anim.Len() != 0 {
		t.Errorf("Len = %d, want 0", anim.Len())
	}
}

func TestEvaluateIsPureInTime(t *testing.T) {
	kinds := []EffectKind{
		EffectOpacity, EffectGlow, EffectMaterial, EffectFloat, EffectPulse, EffectSpin,
		EffectSparkle, EffectRainbow, EffectCosmic, EffectWatercolor, EffectMonochrome,
	}
	for _, k := range kinds {
		n := NewNode("", NewMaterial(ChannelsStandard))
		base := captureBase(n)
		p := DefaultEffectParams(k).withDefaults(k)

		evaluate(k, p, &base, n, 1.3)
		first := *n
		firstMat := *n.Material
		evaluate(k, p, &base, n, 4.7)
		evaluate(k, p, &base, n, 1.3)

		if n.Position != first.Position || n.Rotation != first.Rotation || n.Scale != first.Scale {
			t.Errorf("%s: transform differs on re-evaluation", k)
		}
		if n.Material.Color != firstMat.Color || n.Material.Opacity != firstMat.Opacity ||
			n.Material.EmissiveIntensity != firstMat.EmissiveIntensity {
			t.Errorf("%s: material differs on re-evaluation", k)
		}
	}
}

func TestRestoreUndoesEveryKind(t *testing.T) {
	for k := EffectKind(0); k < effectKindCount; k++ {
		n := NewNode("", NewMaterial(ChannelsStandard|ChannelTexture))
		n.Position = Vec3{1, 2, 3}
		before := *n.Material
		base := captureBase(n)
		p := DefaultEffectParams(k).withDefaults(k)

		evaluate(k, p, &base, n, 0.37)
		restore(k, &base, n)

		if n.Position != (Vec3{1, 2, 3}) || n.Rotation != (Vec3{}) || n.Scale != (Vec3{1, 1, 1}) {
			t.Errorf("%s: transform not restored", k)
		}
		m := n.Material
		if m.Color != before.Color || m.Opacity != before.Opacity || m.Transparent != before.Transparent ||
			m.EmissiveIntensity != before.EmissiveIntensity || m.Metalness != before.Metalness ||
			m.Saturation != before.Saturation || m.ChromaKey != before.ChromaKey {
			t.Errorf("%s: material not restored: %+v", k, m)
		}
	}
}

func TestParseEffectKind(t *testing.T) {
	for k := EffectKind(0); k < effectKindCount; k++ {
		got, ok := ParseEffectKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseEffectKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseEffectKind("wobble"); ok {
		t.Error("ParseEffectKind(wobble) should fail")
	}
}
