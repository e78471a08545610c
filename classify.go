package sprout

import "regexp"

// ParsedCommand is the classification of one submission. It is created fresh
// for every call to Classify and never stored.
type ParsedCommand struct {
	Intent     IntentType
	Media      MediaType
	Confidence float64

	// NeedsTarget is set when the command must be resolved against the
	// registry before it can run. A modify command on an already selected
	// object does not need a target.
	NeedsTarget       bool
	HasExplicitTarget bool

	// RequiresConfirmation is set for deletes.
	RequiresConfirmation bool

	// Keyword is the literal text that triggered the winning rule.
	Keyword string
	// Rule names the winning rule, for debugging.
	Rule string

	Deltas AttributeDeltas

	// TargetPhrase is Text with every span consumed by Deltas removed.
	TargetPhrase string
	// Text is the normalized input.
	Text string
}

var (
	deleteRe   = regexp.MustCompile(`削除|消して|消去|消す|捨てて|取り除いて|除去して|いらない|\b(delete|remove|erase|destroy|discard|get rid of)\b`)
	importRe   = regexp.MustCompile(`インポートして|インポートする|読み込んで|取り込んで|アップロードして|\b(import|upload)\b`)
	selectRe   = regexp.MustCompile(`選択して|選択する|を選択$|選んで|\b(select|pick|choose)\b`)
	generateRe = regexp.MustCompile(`作って|つくって|作成して|生成して|描いて|かいて|作りたい|作ろう|出して|\b(create|generate|draw|render)\b|\bmake (?:a|an|some|me|another|one|new)\b`)

	ordinalRe    = regexp.MustCompile(`(\d+|[一二三四五六七八九十]+)(?:番目|つ目|個目|枚目)|\b(\d+)(?:st|nd|rd|th)\b|\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\b|最初|一番目`)
	sourceRefRe  = regexp.MustCompile(`インポートした|読み込んだ|取り込んだ|アップロードした|生成した|作った|作成した|描いた|\b(imported|uploaded|generated|created|made|drew|drawn)\b`)
	referentRe   = regexp.MustCompile(`さっきの|先ほどの|前の|最後の|最新の|今の|それ|あれ|これ|その|あの|この|\b(that|this|it|these|those)\b|\bthe (previous|last|latest|other) one\b`)
	freshRe      = regexp.MustCompile(`新しい|新しく|新規|もう一つ|もうひとつ|もう1つ|別の|\b(new|another)\b`)
	modifyVerbRe = regexp.MustCompile(`変更して|変えて|修正して|調整して|\b(change|modify|edit|adjust|tweak)\b`)

	videoRe = regexp.MustCompile(`動画|ビデオ|ムービー|\b(video|movie|clip|animation|animated)\b`)
)

// classifyInput is what every rule sees.
type classifyInput struct {
	text        string
	hasSelected bool
	deltas      AttributeDeltas
	rest        string // text left after the deltas were read
}

// rule is one entry of the classifier's priority list. match returns the
// triggering keyword, or false; build fills in the command.
type rule struct {
	name  string
	match func(in *classifyInput) (string, bool)
	build func(in *classifyInput, cmd *ParsedCommand)
}

// Classifier turns free text into a ParsedCommand by evaluating an ordered
// rule list; the first rule that matches wins.
type Classifier struct {
	dict  *Dictionary
	rules []rule
}

// NewClassifier returns a classifier that reads colors and effects from dict.
func NewClassifier(dict *Dictionary) *Classifier {
	return &Classifier{dict: dict, rules: defaultRules()}
}

// SetDictionary swaps the vocabulary.
func (c *Classifier) SetDictionary(d *Dictionary) {
	c.dict = d
}

// Rules returns the rule names in priority order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.name
	}
	return names
}

// Classify classifies text. It has no side effects; hasSelected says whether
// an object is currently selected.
func (c *Classifier) Classify(text string, hasSelected bool) ParsedCommand {
	norm := Normalize(text)
	if norm == "" {
		return ParsedCommand{Intent: IntentEmpty, Rule: "empty"}
	}

	in := &classifyInput{text: norm, hasSelected: hasSelected}
	in.deltas, in.rest = parseDeltas(c.dict, norm)

	cmd := ParsedCommand{
		Media:        guessMedia(norm),
		Deltas:       in.deltas,
		TargetPhrase: in.rest,
		Text:         norm,
	}
	for _, r := range c.rules {
		kw, ok := r.match(in)
		if !ok {
			continue
		}
		cmd.Keyword = kw
		cmd.Rule = r.name
		r.build(in, &cmd)
		debugf("classify %q -> %s (%s, %q)", norm, cmd.Intent, r.name, kw)
		return cmd
	}
	// The fallback rule always matches; this is unreachable with the
	// default rule list.
	cmd.Intent = IntentGenerate
	return cmd
}

func matchRe(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindString(text)
	return m, m != ""
}

func defaultRules() []rule {
	return []rule{
		{
			name: "delete",
			match: func(in *classifyInput) (string, bool) {
				// "エフェクトを消して" stops effects; it does not delete.
				return matchRe(deleteRe, in.rest)
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentDelete
				cmd.Confidence = 0.9
				cmd.NeedsTarget = true
				cmd.RequiresConfirmation = true
				cmd.HasExplicitTarget = hasTargetReference(in.text)
			},
		},
		{
			name: "import",
			match: func(in *classifyInput) (string, bool) {
				return matchRe(importRe, in.text)
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentImport
				cmd.Confidence = 0.85
			},
		},
		{
			name: "select",
			match: func(in *classifyInput) (string, bool) {
				return matchRe(selectRe, in.text)
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentSelect
				cmd.Confidence = 0.8
				cmd.NeedsTarget = true
				cmd.HasExplicitTarget = hasTargetReference(in.text)
			},
		},
		{
			name: "generate",
			match: func(in *classifyInput) (string, bool) {
				return matchRe(generateRe, in.text)
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentGenerate
				cmd.Confidence = 0.85
			},
		},
		{
			name: "explicit-target",
			match: func(in *classifyInput) (string, bool) {
				for _, re := range []*regexp.Regexp{ordinalRe, sourceRefRe, referentRe} {
					if kw, ok := matchRe(re, in.text); ok {
						return kw, true
					}
				}
				return "", false
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentModify
				cmd.Confidence = 0.8
				cmd.NeedsTarget = true
				cmd.HasExplicitTarget = true
			},
		},
		{
			name: "selected",
			match: func(in *classifyInput) (string, bool) {
				if !in.hasSelected || freshRe.MatchString(in.text) {
					return "", false
				}
				return "", true
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentModify
				cmd.Confidence = 0.7
			},
		},
		{
			name: "modify-vocabulary",
			match: func(in *classifyInput) (string, bool) {
				if kw, ok := matchRe(modifyVerbRe, in.text); ok {
					return kw, true
				}
				if in.deltas.requestsChange() {
					return in.deltas.String(), true
				}
				return "", false
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentModify
				cmd.Confidence = 0.6
				cmd.NeedsTarget = !in.hasSelected
			},
		},
		{
			name: "fallback",
			match: func(in *classifyInput) (string, bool) {
				return "", true
			},
			build: func(in *classifyInput, cmd *ParsedCommand) {
				cmd.Intent = IntentGenerate
				cmd.Confidence = 0.4
			},
		},
	}
}

// requestsChange reports whether the deltas read as a modification request.
// A color only counts when it was phrased as a command, so "赤い花" is a
// description rather than a recolor.
func (d AttributeDeltas) requestsChange() bool {
	if d.Color != nil && d.colorVerb {
		return true
	}
	return d.Scale != nil || d.Rotation != nil || d.Translation != nil || d.Opacity != nil ||
		d.Flip || len(d.Effects) > 0 || d.ClearEffects || len(d.StopEffects) > 0
}

func hasTargetReference(text string) bool {
	return ordinalRe.MatchString(text) || sourceRefRe.MatchString(text) || referentRe.MatchString(text)
}

// guessMedia defaults to image; any video vocabulary wins.
func guessMedia(text string) MediaType {
	if videoRe.MatchString(text) {
		return MediaVideo
	}
	return MediaImage
}
