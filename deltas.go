package sprout

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AttributeDeltas is the structured change a modify command asks for. Every
// field is optional; nil / false / empty means "leave alone".
type AttributeDeltas struct {
	Color       *Color
	Scale       *float64 // uniform multiplier
	Rotation    *float64 // radians added about the up axis
	Translation *Vec3    // local-frame offset
	Opacity     *float64
	Flip        bool // mirror horizontally

	Effects        []EffectKind
	MaterialPreset string // preset for EffectMaterial, when requested
	ClearEffects   bool
	StopEffects    []EffectKind // named effects to stop ("stop the glow")

	colorVerb bool // the color was phrased as a command ("赤くして", "make it red")
}

// Empty reports whether no field is set.
func (d AttributeDeltas) Empty() bool {
	return d.Color == nil && d.Scale == nil && d.Rotation == nil && d.Translation == nil &&
		d.Opacity == nil && !d.Flip && len(d.Effects) == 0 && !d.ClearEffects &&
		len(d.StopEffects) == 0
}

// HasAttributes reports whether any field the Mutator applies is set.
func (d AttributeDeltas) HasAttributes() bool {
	return d.Color != nil || d.Scale != nil || d.Rotation != nil || d.Translation != nil ||
		d.Opacity != nil || d.Flip
}

func (d AttributeDeltas) String() string {
	var parts []string
	if d.Color != nil {
		parts = append(parts, fmt.Sprintf("color=#%06x", d.Color.Hex()))
	}
	if d.Scale != nil {
		parts = append(parts, fmt.Sprintf("scale=x%.2f", *d.Scale))
	}
	if d.Rotation != nil {
		parts = append(parts, fmt.Sprintf("rotation=%+.1fdeg", *d.Rotation*180/math.Pi))
	}
	if d.Translation != nil {
		t := *d.Translation
		parts = append(parts, fmt.Sprintf("move=(%.2f,%.2f,%.2f)", t.X, t.Y, t.Z))
	}
	if d.Opacity != nil {
		parts = append(parts, fmt.Sprintf("opacity=%.2f", *d.Opacity))
	}
	if d.Flip {
		parts = append(parts, "flip")
	}
	for _, k := range d.Effects {
		parts = append(parts, "effect="+k.String())
	}
	if d.ClearEffects {
		parts = append(parts, "clear-effects")
	}
	for _, k := range d.StopEffects {
		parts = append(parts, "stop="+k.String())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

const (
	growFactor      = 1.5
	defaultRotation = math.Pi / 4
	defaultStep     = 1.0
)

var (
	clearEffectsRe = regexp.MustCompile(`(エフェクト|効果|アニメーション|アニメ)(を|は)?(全部|すべて)?(解除|消して|消す|外して|止めて|止める|停止|オフ)|動きを止め|止めて|停止して|\b(stop|clear|remove|disable)( all)?( the)? (effects?|animations?|animating|moving)\b|\bno effects?\b`)

	// An effect name followed or preceded by a stop verb names an effect to
	// stop rather than one to start.
	stopAfterRe  = regexp.MustCompile(`^(?:る|せる|させる|てる|ている|ってる)?(?:の|こと)?(?:を|は|も)?\s*(?:やめて|やめる|やめ|止めて|止める|消して|消す|解除して|解除|外して|オフにして|オフ|停止して|停止)`)
	stopBeforeRe = regexp.MustCompile(`\b(?:stop|remove|clear|disable|cancel|end|turn off|switch off|no more)\s+(?:the\s+|that\s+|this\s+|its\s+)?$`)

	scaleFactorRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:倍|x\b|times\b)`)
	halfRe        = regexp.MustCompile(`半分|\bhalf (the )?size\b`)
	growRe        = regexp.MustCompile(`大きく|でかく|拡大|\b(bigger|larger|enlarge|scale up|grow)\b`)
	shrinkRe      = regexp.MustCompile(`小さく|縮小|\b(smaller|shrink|scale down)\b`)

	degreesRe    = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:度|°|\bdegrees?\b|\bdeg\b)`)
	rotateRe     = regexp.MustCompile(`回転|回して|傾け|\b(rotate|turn around|tilt)\b`)
	rotateBackRe = regexp.MustCompile(`左回り|反時計|\b(counter-?clockwise|anticlockwise)\b`)

	moveJaRe = regexp.MustCompile(`(右|左|上|下|手前|前|後ろ|奥)(に|へ)\s*(少し|ちょっと)?\s*(移動|動か|ずら|寄せ)`)
	moveEnRe = regexp.MustCompile(`\bmove (?:it |this |that )?(a bit |slightly |a little )?(?:to the )?(left|right|up|down|forwards?|backwards?|back)\b`)

	opaqueRe      = regexp.MustCompile(`不透明|\bopaque\b`)
	translucentRe = regexp.MustCompile(`半透明|\b(semi-?transparent|translucent|see-through|half transparent)\b`)
	percentRe     = regexp.MustCompile(`(透明度|不透明度|\bopacity\b|\btransparency\b)\s*(?:を|to|of)?\s*(\d+(?:\.\d+)?)\s*(%|%|パーセント)`)
	transparentRe = regexp.MustCompile(`透明に|透明にして|見えなく|\b(transparent|invisible)\b`)

	flipRe = regexp.MustCompile(`左右反転|反転|裏返|\b(flip|mirror)\b`)

	colorSuffixRe = regexp.MustCompile(`^(色)?(く|に)`)
	colorVerbEnRe = regexp.MustCompile(`\b(make|turn|change|color|colour|recolou?r)\b`)
)

var moveDirections = map[string]Vec3{
	"右": {X: 1}, "right": {X: 1},
	"左": {X: -1}, "left": {X: -1},
	"上": {Y: 1}, "up": {Y: 1},
	"下": {Y: -1}, "down": {Y: -1},
	"前": {Z: 1}, "手前": {Z: 1}, "forward": {Z: 1}, "forwards": {Z: 1},
	"後ろ": {Z: -1}, "奥": {Z: -1}, "back": {Z: -1}, "backward": {Z: -1}, "backwards": {Z: -1},
}

// deltaParser accumulates deltas and the byte spans of text they consumed.
type deltaParser struct {
	text   string
	masked []byte
	spans  [][2]int
	d      AttributeDeltas
}

func (p *deltaParser) consume(start, end int) {
	p.spans = append(p.spans, [2]int{start, end})
	for i := start; i < end; i++ {
		p.masked[i] = 0
	}
}

// find runs re against the text with already consumed spans masked out and
// consumes the first match.
func (p *deltaParser) find(re *regexp.Regexp) []string {
	loc := re.FindSubmatchIndex(p.masked)
	if loc == nil {
		return nil
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = p.text[loc[2*i]:loc[2*i+1]]
		}
	}
	p.consume(loc[0], loc[1])
	return groups
}

// parseDeltas extracts attribute deltas from normalized text. It returns the
// deltas and the text with every consumed span removed, which is what is
// left to name the target.
func parseDeltas(dict *Dictionary, text string) (AttributeDeltas, string) {
	p := &deltaParser{text: text, masked: []byte(text)}

	p.parseEffects(dict)
	if p.find(clearEffectsRe) != nil {
		p.d.ClearEffects = true
	}

	p.parseScale()
	p.parseRotation()
	p.parseTranslation()
	p.parseOpacity()
	if p.find(flipRe) != nil {
		p.d.Flip = true
	}
	p.parseColor(dict)

	return p.d, p.remainder()
}

// parseEffects reads effect names. A name next to a stop verb goes to
// StopEffects and its verb is consumed with it, so the verb is not read
// again as a clear-all or a delete.
func (p *deltaParser) parseEffects(dict *Dictionary) {
	started := make(map[EffectKind]bool)
	stopped := make(map[EffectKind]bool)
	for _, m := range dict.FindEffects(p.text) {
		start, end := m.Start, m.End
		stop := false
		if loc := stopAfterRe.FindStringIndex(p.text[end:]); loc != nil {
			end += loc[1]
			stop = true
		} else if loc := stopBeforeRe.FindStringIndex(p.text[:start]); loc != nil {
			start = loc[0]
			stop = true
		}
		p.consume(start, end)

		switch {
		case stop && !stopped[m.Effect]:
			stopped[m.Effect] = true
			p.d.StopEffects = append(p.d.StopEffects, m.Effect)
		case !stop && !started[m.Effect]:
			started[m.Effect] = true
			p.d.Effects = append(p.d.Effects, m.Effect)
			if m.Effect == EffectMaterial {
				p.d.MaterialPreset = m.Preset
			}
		}
	}
}

func (p *deltaParser) parseScale() {
	if g := p.find(scaleFactorRe); g != nil {
		if f, err := strconv.ParseFloat(g[1], 64); err == nil && f > 0 {
			p.d.Scale = &f
		}
	}
	if p.find(halfRe) != nil && p.d.Scale == nil {
		f := 0.5
		p.d.Scale = &f
	}
	grow := p.find(growRe) != nil
	shrink := p.find(shrinkRe) != nil
	if p.d.Scale != nil {
		if shrink && *p.d.Scale > 1 {
			f := 1 / *p.d.Scale
			p.d.Scale = &f
		}
		return
	}
	switch {
	case grow && !shrink:
		f := growFactor
		p.d.Scale = &f
	case shrink && !grow:
		f := 1 / growFactor
		p.d.Scale = &f
	}
}

func (p *deltaParser) parseRotation() {
	var angle float64
	found := false
	if g := p.find(degreesRe); g != nil {
		if deg, err := strconv.ParseFloat(g[1], 64); err == nil {
			angle = deg * math.Pi / 180
			found = true
		}
	}
	if p.find(rotateRe) != nil && !found {
		angle = defaultRotation
		found = true
	}
	if !found {
		return
	}
	if p.find(rotateBackRe) != nil {
		angle = -math.Abs(angle)
	}
	p.d.Rotation = &angle
}

func (p *deltaParser) parseTranslation() {
	step := defaultStep
	var dir Vec3
	if g := p.find(moveJaRe); g != nil {
		dir = moveDirections[g[1]]
		if g[3] != "" {
			step /= 2
		}
	} else if g := p.find(moveEnRe); g != nil {
		dir = moveDirections[g[2]]
		if g[1] != "" {
			step /= 2
		}
	} else {
		return
	}
	v := dir.Mul(step)
	p.d.Translation = &v
}

func (p *deltaParser) parseOpacity() {
	var v float64
	if g := p.find(percentRe); g != nil {
		pct, err := strconv.ParseFloat(g[2], 64)
		if err != nil {
			return
		}
		pct = clamp01(pct / 100)
		if g[1] == "透明度" || g[1] == "transparency" {
			v = 1 - pct
		} else {
			v = pct
		}
		p.d.Opacity = &v
		return
	}
	switch {
	case p.find(opaqueRe) != nil:
		v = 1
	case p.find(translucentRe) != nil:
		v = 0.5
	case p.find(transparentRe) != nil:
		v = 0.2
	default:
		return
	}
	p.d.Opacity = &v
}

// parseColor picks the target color: a color phrased as a command
// ("青くして", "青色に") wins, otherwise the last color mentioned, since
// earlier ones usually describe the target ("赤い猫を青く").
func (p *deltaParser) parseColor(dict *Dictionary) {
	var colors []TermMatch
	for _, m := range dict.Terms(p.text) {
		if m.Kind != TermColor || p.masked[m.Start] == 0 {
			continue
		}
		colors = append(colors, m)
	}
	if len(colors) == 0 {
		return
	}
	chosen := colors[len(colors)-1]
	end := chosen.End
	for _, m := range colors {
		if loc := colorSuffixRe.FindStringIndex(p.text[m.End:]); loc != nil {
			chosen = m
			end = m.End + loc[1]
			p.d.colorVerb = true
			break
		}
	}
	if !p.d.colorVerb && colorVerbEnRe.MatchString(p.text) {
		p.d.colorVerb = true
	}
	c := chosen.Color
	p.d.Color = &c
	if p.d.colorVerb {
		p.consume(chosen.Start, end)
	}
}

func (p *deltaParser) remainder() string {
	if len(p.spans) == 0 {
		return p.text
	}
	var b strings.Builder
	for i := 0; i < len(p.masked); i++ {
		if p.masked[i] == 0 {
			b.WriteByte(' ')
			for i+1 < len(p.masked) && p.masked[i+1] == 0 {
				i++
			}
			continue
		}
		b.WriteByte(p.masked[i])
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
