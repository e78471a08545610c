package sprout

import (
	"fmt"
	"math"
	"strings"
)

// SkippedField is a delta field the Mutator could not apply.
type SkippedField struct {
	Field string
	Err   error
}

// MutationResult summarizes one Apply call. Applied is false only when no
// field could be applied.
type MutationResult struct {
	Applied bool
	Summary string
	Fields  []string // applied field names, in application order
	Skipped []SkippedField
}

// Mutator applies attribute deltas to records. When an animator is attached,
// every change is also written into the effect base so running effects build
// on the new value instead of undoing it.
type Mutator struct {
	reg  *Registry
	anim *Animator
}

// NewMutator creates a mutator that records history in reg. anim may be nil.
func NewMutator(reg *Registry, anim *Animator) *Mutator {
	return &Mutator{reg: reg, anim: anim}
}

type fieldChange struct {
	name   string
	needs  MaterialChannels
	detail string
	apply  func(f Fields)
}

// Apply applies every set field of d to rec. Each field either applies in
// full or is skipped with ErrUnsupportedMaterial; one skipped field never
// blocks the others.
func (m *Mutator) Apply(rec *Record, d AttributeDeltas) MutationResult {
	if rec == nil || rec.Disposed() || rec.Node == nil || rec.Node.IsDisposed() {
		return MutationResult{
			Summary: "object is gone",
			Skipped: []SkippedField{{Field: "*", Err: ErrDisposed}},
		}
	}

	if m.anim != nil {
		m.anim.Settle(rec.ID)
	}

	var res MutationResult
	var parts []string
	for _, c := range m.changes(rec.Node, d) {
		if c.needs != 0 && !rec.Node.Material.Has(c.needs) {
			res.Skipped = append(res.Skipped, SkippedField{
				Field: c.name,
				Err:   fmt.Errorf("%w: %s on %s", ErrUnsupportedMaterial, c.name, rec.ID),
			})
			debugf("mutate %s: skip %s", rec.ID, c.name)
			continue
		}
		c.apply(rec.Node.fields())
		if m.anim != nil {
			m.anim.RewriteBase(rec.ID, c.apply)
		}
		m.reg.Touch(rec, c.name, c.detail)
		res.Fields = append(res.Fields, c.name)
		parts = append(parts, c.name+" "+c.detail)
		debugf("mutate %s: %s %s", rec.ID, c.name, c.detail)
	}

	res.Applied = len(res.Fields) > 0
	switch {
	case res.Applied && len(res.Skipped) > 0:
		res.Summary = strings.Join(parts, ", ") + " (skipped " + skippedNames(res.Skipped) + ")"
	case res.Applied:
		res.Summary = strings.Join(parts, ", ")
	case len(res.Skipped) > 0:
		res.Summary = "nothing applied (skipped " + skippedNames(res.Skipped) + ")"
	default:
		res.Summary = "nothing to change"
	}
	return res
}

// changes lists the set fields of d in a fixed order. Translation is rotated
// into the node's local frame once, up front, so the node and its effect base
// move by the same world offset.
func (m *Mutator) changes(n *Node, d AttributeDeltas) []fieldChange {
	var out []fieldChange
	if d.Color != nil {
		c := *d.Color
		out = append(out, fieldChange{
			name: "color", needs: ChannelColor, detail: fmt.Sprintf("#%06x", c.Hex()),
			apply: func(f Fields) {
				if f.Material != nil {
					f.Material.Color = c
				}
			},
		})
	}
	if d.Scale != nil {
		s := *d.Scale
		out = append(out, fieldChange{
			name: "scale", detail: fmt.Sprintf("x%.2f", s),
			apply: func(f Fields) { *f.Scale = f.Scale.Mul(s) },
		})
	}
	if d.Rotation != nil {
		r := *d.Rotation
		out = append(out, fieldChange{
			name: "rotation", detail: fmt.Sprintf("%+.1fdeg", r*180/math.Pi),
			apply: func(f Fields) { f.Rotation.Y += r },
		})
	}
	if d.Translation != nil {
		off := d.Translation.RotateY(n.Rotation.Y)
		out = append(out, fieldChange{
			name: "position", detail: fmt.Sprintf("(%.2f,%.2f,%.2f)", off.X, off.Y, off.Z),
			apply: func(f Fields) { *f.Position = f.Position.Add(off) },
		})
	}
	if d.Opacity != nil {
		o := clamp01(*d.Opacity)
		out = append(out, fieldChange{
			name: "opacity", needs: ChannelOpacity, detail: fmt.Sprintf("%.2f", o),
			apply: func(f Fields) {
				if f.Material != nil {
					f.Material.Opacity = o
					f.Material.Transparent = o < 1
				}
			},
		})
	}
	if d.Flip {
		out = append(out, fieldChange{
			name: "flip", detail: "horizontal",
			apply: func(f Fields) { f.Scale.X = -f.Scale.X },
		})
	}
	return out
}

func skippedNames(s []SkippedField) string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Field
	}
	return strings.Join(names, ", ")
}
