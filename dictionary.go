package sprout

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionaryYAML []byte

const dictionaryCacheSize = 512

type dictionaryFile struct {
	Nouns []struct {
		Tag     string   `yaml:"tag"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"nouns"`
	Colors []struct {
		Tag     string   `yaml:"tag"`
		Hex     string   `yaml:"hex"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"colors"`
	Effects []struct {
		Kind    string   `yaml:"kind"`
		Preset  string   `yaml:"preset"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"effects"`
}

// TermKind says which table a dictionary term came from.
type TermKind uint8

const (
	TermNoun   TermKind = iota // object noun ("猫", "flower")
	TermColor                  // color name ("赤", "blue")
	TermEffect                 // effect word ("キラキラ", "glow")
)

type term struct {
	text   string
	tag    string
	kind   TermKind
	color  Color
	effect EffectKind
	preset string
}

// TermMatch is one dictionary term found in a piece of text. Start and End
// are byte offsets into the normalized text.
type TermMatch struct {
	Kind   TermKind
	Tag    string
	Alias  string
	Start  int
	End    int
	Color  Color      // valid for color terms
	Effect EffectKind // valid for effect terms
	Preset string     // material preset for EffectMaterial terms
}

// Dictionary is the bilingual keyword table: canonical tags for nouns,
// colors and effects, each with Japanese and English aliases, plus the
// reverse alias index used for fuzzy matching.
type Dictionary struct {
	byTag   map[string][]string
	byAlias map[string]string
	colors  map[string]Color

	nounTerms   []term // nouns and colors, longest first
	effectTerms []term // longest first

	cache *lru.Cache[string, []TermMatch]
}

// DefaultDictionary returns the dictionary compiled from the embedded
// dictionary.yaml. It panics if the embedded data is malformed.
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionaryYAML)
	if err != nil {
		panic("sprout: embedded dictionary: " + err.Error())
	}
	return d
}

// LoadDictionaryFile reads and parses a dictionary YAML file from disk.
func LoadDictionaryFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: load %s: %w", path, err)
	}
	d, err := ParseDictionary(data)
	if err != nil {
		return nil, fmt.Errorf("dictionary: %s: %w", path, err)
	}
	return d, nil
}

// ParseDictionary builds a Dictionary from YAML.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(file.Nouns) == 0 && len(file.Colors) == 0 {
		return nil, fmt.Errorf("parse dictionary: no nouns or colors")
	}

	cache, err := lru.New[string, []TermMatch](dictionaryCacheSize)
	if err != nil {
		return nil, err
	}
	d := &Dictionary{
		byTag:   make(map[string][]string),
		byAlias: make(map[string]string),
		colors:  make(map[string]Color),
		cache:   cache,
	}

	for _, n := range file.Nouns {
		tag := Normalize(n.Tag)
		if tag == "" {
			return nil, fmt.Errorf("parse dictionary: noun with empty tag")
		}
		for _, a := range d.addAliases(tag, n.Aliases) {
			d.nounTerms = append(d.nounTerms, term{text: a, tag: tag, kind: TermNoun})
		}
	}
	for _, c := range file.Colors {
		tag := Normalize(c.Tag)
		col, err := parseHexColor(c.Hex)
		if err != nil {
			return nil, fmt.Errorf("parse dictionary: color %q: %w", c.Tag, err)
		}
		d.colors[tag] = col
		for _, a := range d.addAliases(tag, c.Aliases) {
			d.nounTerms = append(d.nounTerms, term{text: a, tag: tag, kind: TermColor, color: col})
		}
	}
	for _, e := range file.Effects {
		kind, ok := ParseEffectKind(e.Kind)
		if !ok {
			return nil, fmt.Errorf("parse dictionary: unknown effect kind %q", e.Kind)
		}
		for _, a := range e.Aliases {
			a = Normalize(a)
			if a == "" {
				continue
			}
			d.effectTerms = append(d.effectTerms, term{
				text: a, tag: kind.String(), kind: TermEffect, effect: kind, preset: e.Preset,
			})
		}
	}

	sortTerms(d.nounTerms)
	sortTerms(d.effectTerms)
	return d, nil
}

// addAliases registers aliases (and the tag itself) under tag and returns the
// normalized aliases.
func (d *Dictionary) addAliases(tag string, aliases []string) []string {
	out := []string{tag}
	for _, a := range aliases {
		a = Normalize(a)
		if a == "" || a == tag {
			continue
		}
		out = append(out, a)
	}
	for _, a := range out {
		d.byAlias[a] = tag
	}
	d.byTag[tag] = append(d.byTag[tag], out...)
	return out
}

// sortTerms orders terms longest first so "赤色" wins over "赤" and
// "花火" over "花".
func sortTerms(terms []term) {
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i].text) > len(terms[j].text)
	})
}

func parseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("want 6 hex digits, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, err
	}
	return ColorFromHex(uint32(v)), nil
}

// Aliases returns every alias of tag, including the tag itself. The
// returned slice MUST NOT be mutated.
func (d *Dictionary) Aliases(tag string) []string {
	return d.byTag[tag]
}

// TagOf returns the canonical tag for an exact alias.
func (d *Dictionary) TagOf(alias string) (string, bool) {
	tag, ok := d.byAlias[Normalize(alias)]
	return tag, ok
}

// Color returns the value of a color tag.
func (d *Dictionary) Color(tag string) (Color, bool) {
	c, ok := d.colors[tag]
	return c, ok
}

// Terms returns every noun and color term found in the normalized text, in
// order of appearance. Overlapping aliases resolve to the longest one. The
// returned slice MUST NOT be mutated.
func (d *Dictionary) Terms(text string) []TermMatch {
	if m, ok := d.cache.Get(text); ok {
		return m
	}
	m := scanTerms(text, d.nounTerms)
	d.cache.Add(text, m)
	return m
}

// Tags returns the distinct noun and color tags found in the normalized text.
func (d *Dictionary) Tags(text string) []string {
	return uniqueTags(d.Terms(text), false)
}

// NounTags returns the distinct noun tags (no colors) found in the text.
func (d *Dictionary) NounTags(text string) []string {
	return uniqueTags(d.Terms(text), true)
}

func uniqueTags(matches []TermMatch, nounsOnly bool) []string {
	var tags []string
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if nounsOnly && m.Kind != TermNoun {
			continue
		}
		if seen[m.Tag] {
			continue
		}
		seen[m.Tag] = true
		tags = append(tags, m.Tag)
	}
	return tags
}

// FindColor returns the first color term in the normalized text.
func (d *Dictionary) FindColor(text string) (TermMatch, bool) {
	for _, m := range d.Terms(text) {
		if m.Kind == TermColor {
			return m, true
		}
	}
	return TermMatch{}, false
}

// FindEffects returns every effect term in the normalized text, in order of
// appearance.
func (d *Dictionary) FindEffects(text string) []TermMatch {
	return scanTerms(text, d.effectTerms)
}

// Related reports whether two pieces of text share a noun tag through the
// alias table, e.g. "猫" and "cat-a.png".
func (d *Dictionary) Related(a, b string) bool {
	ta := d.NounTags(a)
	if len(ta) == 0 {
		return false
	}
	tb := d.NounTags(b)
	for _, x := range ta {
		for _, y := range tb {
			if x == y {
				return true
			}
		}
	}
	return false
}

// scanTerms finds every term in text, longest first, masking matched spans
// so shorter aliases inside them are not reported again.
func scanTerms(text string, terms []term) []TermMatch {
	if text == "" {
		return nil
	}
	masked := []byte(text)
	var out []TermMatch
	for _, t := range terms {
		from := 0
		for from < len(masked) {
			i, ok := indexTerm(string(masked[from:]), t.text)
			if !ok {
				break
			}
			start := from + i
			end := start + len(t.text)
			out = append(out, TermMatch{
				Kind:   t.kind,
				Tag:    t.tag,
				Alias:  t.text,
				Start:  start,
				End:    end,
				Color:  t.color,
				Effect: t.effect,
				Preset: t.preset,
			})
			for k := start; k < end; k++ {
				masked[k] = 0
			}
			from = end
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
