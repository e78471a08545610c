package sprout

import (
	"fmt"
	"regexp"
	"strings"
)

// ResolveContext carries what the resolver knows about the command beyond
// the phrase itself.
type ResolveContext struct {
	Intent IntentType
	// Selected is the current selection. Plain demonstratives ("それ",
	// "this") refer to it when set.
	Selected *Record
}

// sourceClass narrows candidates to imported or generated records.
type sourceClass uint8

const (
	classAny sourceClass = iota
	classImported
	classGenerated
)

func (c sourceClass) admits(rec *Record) bool {
	switch c {
	case classImported:
		return rec.Source == SourceImportedFile
	case classGenerated:
		return rec.Source.Generated()
	}
	return true
}

var (
	importClassRe    = regexp.MustCompile(`インポートした|インポート|読み込んだ|取り込んだ|アップロードした|\b(imported|uploaded)\b`)
	generateClassRe  = regexp.MustCompile(`生成した|作った|作成した|描いた|\b(generated|created|made|drew|drawn)\b`)
	recentRe         = regexp.MustCompile(`さっきの|先ほどの|前の|最後の|最新の|\bthe (previous|last|latest) one\b|\b(previous|last|latest)\b`)
	demonstrativeRe  = regexp.MustCompile(`それ|あれ|これ|その|あの|この|今の|\b(that|this|it|these|those)\b|\bthe other one\b`)
	englishOrdinals  = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10}
	resolveTrimmers  = []*regexp.Regexp{
		// politeness
		regexp.MustCompile(`(して)?(ください|下さい|お願いします|おねがいします|お願い|ちょうだい)$`),
		regexp.MustCompile(`\b(please|pls|thanks)\b`),
		// trailing action verbs
		regexp.MustCompile(`(を|に|は)?(削除|消去|消して|消す|選択|選んで|変更|変えて|修正)(して|する)?$`),
		regexp.MustCompile(`(して|する|させて|にして)$`),
		regexp.MustCompile(`^(delete|remove|erase|select|pick|choose|change|modify|make|turn|move|rotate)\b`),
		// pronouns and filler
		regexp.MustCompile(`\b(i|you|we|me|my|one|ones|object|thing|item|picture|image)\b`),
		regexp.MustCompile(`やつ$|もの$|物$`),
		// leading demonstratives and articles
		regexp.MustCompile(`^(the|a|an|from|on|of)\b`),
		// particles, one at a time so "くもを" stops at "くも"
		regexp.MustCompile(`^[のにをでへが]`),
		regexp.MustCompile(`[をにはがのへもでと]$`),
	}
)

// query is a phrase decomposed into the parts each resolution step uses.
type query struct {
	phrase  string
	ordinal int // 1-based; 0 when absent
	class   sourceClass
	recent  bool // "the previous one", "さっきの"
	deictic bool // "それ", "this"
	name    string
}

func (r *Resolver) parseQuery(phrase string) query {
	q := query{phrase: Normalize(phrase)}
	rest := q.phrase

	if m := ordinalRe.FindStringSubmatch(rest); m != nil {
		switch {
		case m[1] != "":
			q.ordinal, _ = parseCount(m[1])
		case m[2] != "":
			q.ordinal, _ = parseCount(m[2])
		case m[3] != "":
			q.ordinal = englishOrdinals[m[3]]
		default:
			q.ordinal = 1
		}
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	switch {
	case importClassRe.MatchString(rest):
		q.class = classImported
		rest = importClassRe.ReplaceAllString(rest, " ")
	case generateClassRe.MatchString(rest):
		q.class = classGenerated
		rest = generateClassRe.ReplaceAllString(rest, " ")
	}

	if recentRe.MatchString(rest) {
		q.recent = true
		rest = recentRe.ReplaceAllString(rest, " ")
	}
	if demonstrativeRe.MatchString(rest) {
		q.deictic = true
		rest = demonstrativeRe.ReplaceAllString(rest, " ")
	}

	q.name = r.trimName(rest)
	return q
}

// trimName applies the trim patterns to each space separated segment until
// nothing changes or the segment is a dictionary alias, and joins what is
// left.
func (r *Resolver) trimName(s string) string {
	var kept []string
	for _, seg := range strings.Fields(s) {
		for seg != "" && !r.isAlias(seg) {
			before := seg
			for _, re := range resolveTrimmers {
				if seg = strings.TrimSpace(re.ReplaceAllString(seg, "")); seg == "" || r.isAlias(seg) {
					break
				}
			}
			if seg == before {
				break
			}
		}
		if seg != "" {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, " ")
}

func (r *Resolver) isAlias(s string) bool {
	if r.dict == nil {
		return false
	}
	_, ok := r.dict.TagOf(s)
	return ok
}

// resolveStep is one entry of the resolver's priority list. A step that
// does not apply returns handled=false and the next step runs.
type resolveStep struct {
	name string
	run  func(r *Resolver, q query, reg *Registry, rc ResolveContext) (rec *Record, handled bool, err error)
}

// Resolver maps a natural-language reference onto one live record. Steps run
// in priority order (ordinal, source type, referential, keyword, and last
// the selection for a phrase that names nothing) and the first that
// produces a record wins; within a step, ties go to the earliest
// record in registry order.
type Resolver struct {
	dict  *Dictionary
	steps []resolveStep
}

// NewResolver returns a resolver that matches names through dict.
func NewResolver(dict *Dictionary) *Resolver {
	return &Resolver{dict: dict, steps: defaultSteps()}
}

// SetDictionary swaps the vocabulary.
func (r *Resolver) SetDictionary(d *Dictionary) {
	r.dict = d
}

// Resolve finds the record phrase refers to. It returns ErrNoTarget (or
// ErrInvalidOrdinal) rather than guessing.
func (r *Resolver) Resolve(phrase string, reg *Registry, rc ResolveContext) (*Record, error) {
	q := r.parseQuery(phrase)
	for _, step := range r.steps {
		rec, handled, err := step.run(r, q, reg, rc)
		if !handled {
			continue
		}
		if err != nil {
			debugf("resolve %q: %s: %v", q.phrase, step.name, err)
			return nil, err
		}
		debugf("resolve %q -> %s (%s)", q.phrase, rec.ID, step.name)
		return rec, nil
	}
	debugf("resolve %q: no target", q.phrase)
	return nil, fmt.Errorf("%w: %q", ErrNoTarget, phrase)
}

func defaultSteps() []resolveStep {
	return []resolveStep{
		{name: "ordinal", run: (*Resolver).byOrdinal},
		{name: "source-type", run: (*Resolver).bySourceType},
		{name: "referential", run: (*Resolver).byReference},
		{name: "keyword", run: (*Resolver).byKeyword},
		{name: "selection", run: (*Resolver).bySelection},
	}
}

// candidates returns the records admitted by class, imported records in
// import order and everything else in creation order.
func candidates(reg *Registry, class sourceClass) []*Record {
	if class == classImported {
		return reg.Imported()
	}
	var out []*Record
	for _, rec := range reg.All() {
		if class.admits(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Resolver) byOrdinal(q query, reg *Registry, _ ResolveContext) (*Record, bool, error) {
	if q.ordinal == 0 {
		return nil, false, nil
	}
	recs := candidates(reg, q.class)
	if q.name != "" {
		recs = r.filter(recs, q.name)
	}
	if len(recs) == 0 {
		return nil, true, fmt.Errorf("%w: no %q to count", ErrNoTarget, q.name)
	}
	if q.ordinal < 1 || q.ordinal > len(recs) {
		return nil, true, fmt.Errorf("%w: %d of %d", ErrInvalidOrdinal, q.ordinal, len(recs))
	}
	return recs[q.ordinal-1], true, nil
}

func (r *Resolver) bySourceType(q query, reg *Registry, _ ResolveContext) (*Record, bool, error) {
	if q.class == classAny || q.name == "" {
		return nil, false, nil
	}
	for _, rec := range candidates(reg, q.class) {
		if r.matches(rec, q.name) {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

func (r *Resolver) byReference(q query, reg *Registry, rc ResolveContext) (*Record, bool, error) {
	if !q.recent && !q.deictic && (q.class == classAny || q.name != "") {
		return nil, false, nil
	}
	if q.deictic && !q.recent && q.class == classAny && q.name == "" && rc.Selected != nil && !rc.Selected.Disposed() {
		return rc.Selected, true, nil
	}

	recs := candidates(reg, q.class)
	byRecency(recs)
	if len(recs) == 0 {
		return nil, false, nil
	}
	if q.name == "" {
		return recs[0], true, nil
	}
	for _, rec := range recs {
		if r.matches(rec, q.name) {
			return rec, true, nil
		}
	}
	// A leftover that names something the dictionary knows must match; a
	// leftover it cannot read falls back to the most recent candidate.
	if r.dict != nil && len(r.dict.Tags(q.name)) > 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

func (r *Resolver) byKeyword(q query, reg *Registry, _ ResolveContext) (*Record, bool, error) {
	if q.name == "" {
		return nil, false, nil
	}
	for _, rec := range reg.All() {
		if r.matches(rec, q.name) {
			return rec, true, nil
		}
	}
	return nil, false, nil
}

// bySelection binds a phrase that names nothing at all ("削除して") to the
// selection.
func (r *Resolver) bySelection(q query, _ *Registry, rc ResolveContext) (*Record, bool, error) {
	if q.name != "" || q.ordinal != 0 || q.class != classAny || q.recent || q.deictic {
		return nil, false, nil
	}
	if rc.Selected == nil || rc.Selected.Disposed() {
		return nil, false, nil
	}
	return rc.Selected, true, nil
}

func (r *Resolver) filter(recs []*Record, name string) []*Record {
	var out []*Record
	for _, rec := range recs {
		if r.matches(rec, name) {
			out = append(out, rec)
		}
	}
	return out
}

// matches tests name against a record: its hints, the dictionary's alias
// table, its prompt as a substring either way, and its filename through the
// dictionary.
func (r *Resolver) matches(rec *Record, name string) bool {
	if rec.Hints[name] {
		return true
	}

	if r.dict != nil {
		var nouns, colors []string
		for _, m := range r.dict.Terms(name) {
			if m.Kind == TermNoun {
				nouns = append(nouns, m.Tag)
			} else {
				colors = append(colors, m.Tag)
			}
		}
		switch {
		case len(nouns) > 0:
			return hasAll(rec, nouns) || r.promptMatches(rec, name)
		case len(colors) > 0:
			return hasAll(rec, colors) || r.promptMatches(rec, name)
		}
	}

	for _, tok := range Tokens(name) {
		if rec.Hints[tok] {
			return true
		}
	}
	return r.promptMatches(rec, name)
}

func (r *Resolver) promptMatches(rec *Record, name string) bool {
	prompt := stripExt(Normalize(rec.Prompt))
	if prompt == "" {
		return false
	}
	if strings.Contains(prompt, name) || strings.Contains(name, prompt) {
		return true
	}
	return rec.Source == SourceImportedFile && r.dict != nil && r.dict.Related(name, prompt)
}

func hasAll(rec *Record, tags []string) bool {
	for _, t := range tags {
		if !rec.Hints[t] {
			return false
		}
	}
	return true
}
