package sprout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// NodeFactory builds the scene node for a new record. assetURL is the
// generated asset, the imported filename, or "" for a placeholder.
type NodeFactory func(kind SourceKind, prompt, assetURL string) *Node

// DefaultNodeFactory gives images, videos and imported files a textured
// plane material and models a lit standard material.
func DefaultNodeFactory(kind SourceKind, prompt, assetURL string) *Node {
	ch := ChannelsTextured
	if kind == SourceGeneratedModel {
		ch = ChannelsStandard
	}
	n := NewNode("", NewMaterial(ch))
	n.AssetURL = assetURL
	return n
}

// SessionConfig holds the collaborators and options of a Session. Zero
// fields take defaults.
type SessionConfig struct {
	// Dictionary is the vocabulary. Default: DefaultDictionary().
	Dictionary *Dictionary
	// Frames drives the effect loop. Default: a ManualFrames the caller can
	// reach through Session.Frames.
	Frames FrameSource
	// Generator serves generate commands. Without one, generate commands
	// fail with ErrGenerationFailed.
	Generator Generator
	// NodeFactory builds nodes. Default: DefaultNodeFactory.
	NodeFactory NodeFactory
	// SpawnDuration is the pop-in length in seconds. Default 0.4; negative
	// disables the pop-in.
	SpawnDuration float32
	// Placeholders registers a generated record as soon as the request is
	// sent, so a failed generation leaves a failed record behind instead of
	// nothing.
	Placeholders bool
	// Clock stamps records. Default time.Now.
	Clock func() time.Time
}

// Outcome is the structured result of one Submit, Confirm or Poll. The core
// never renders it; hosts turn it into feedback.
type Outcome struct {
	Command ParsedCommand
	Target  *Record // resolved, created or deleted record

	Mutation *MutationResult
	Effects  []EffectKind // effects started
	Cleared  int          // effect instances removed
	Stopped  []EffectKind // named effects stopped

	// Pending is set when the outcome waits on Confirm (deletes) or on
	// Poll (generations).
	Pending bool
	// NeedsFile is set when an import command named no file; the host
	// should open its file picker and call Session.Import.
	NeedsFile bool

	Message string
	Err     error
}

type pendingDelete struct {
	rec *Record
	cmd ParsedCommand
}

type generationDone struct {
	cmd      ParsedCommand
	req      GenerationRequest
	recordID string // placeholder record, if any
	res      GenerationResult
	err      error
}

var (
	filenameRe = regexp.MustCompile(`[\p{L}\p{N}_\-.]+\.(png|jpe?g|gif|webp|bmp|mp4|mov|webm|glb|gltf|obj|fbx)\b`)
	modelRe    = regexp.MustCompile(`3d|立体|モデル|\b(model|mesh)\b`)
)

// Session runs submissions through classify, resolve, mutate and animate,
// one at a time, and owns the registry they share. Like the rest of the
// engine it must be used from a single goroutine (the host's frame thread);
// generation requests run in their own goroutines and come back through
// Poll.
type Session struct {
	cfg SessionConfig

	dict       *Dictionary
	reg        *Registry
	classifier *Classifier
	resolver   *Resolver
	mutator    *Mutator
	anim       *Animator
	frames     FrameSource

	sink     EventSink
	selected *Record
	pending  *pendingDelete

	results  chan generationDone
	inFlight int
}

// NewSession wires a Session from cfg.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Dictionary == nil {
		cfg.Dictionary = DefaultDictionary()
	}
	if cfg.Frames == nil {
		cfg.Frames = &ManualFrames{}
	}
	if cfg.NodeFactory == nil {
		cfg.NodeFactory = DefaultNodeFactory
	}
	if cfg.SpawnDuration == 0 {
		cfg.SpawnDuration = 0.4
	}

	reg := NewRegistry(cfg.Dictionary)
	if cfg.Clock != nil {
		reg.SetClock(cfg.Clock)
	}
	anim := NewAnimator(cfg.Frames)
	reg.SetEffects(anim)

	return &Session{
		cfg:        cfg,
		dict:       cfg.Dictionary,
		reg:        reg,
		classifier: NewClassifier(cfg.Dictionary),
		resolver:   NewResolver(cfg.Dictionary),
		mutator:    NewMutator(reg, anim),
		anim:       anim,
		frames:     cfg.Frames,
		results:    make(chan generationDone, 16),
	}
}

// Registry returns the session's object registry.
func (s *Session) Registry() *Registry { return s.reg }

// Animator returns the session's effect registry.
func (s *Session) Animator() *Animator { return s.anim }

// Frames returns the frame source driving the animator.
func (s *Session) Frames() FrameSource { return s.frames }

// Dictionary returns the active vocabulary.
func (s *Session) Dictionary() *Dictionary { return s.dict }

// Classifier returns the session's classifier.
func (s *Session) Classifier() *Classifier { return s.classifier }

// SetEventSink sets the optional ECS bridge.
func (s *Session) SetEventSink(sink EventSink) {
	s.sink = sink
}

// SetDictionary swaps the vocabulary everywhere and recomputes hints.
func (s *Session) SetDictionary(d *Dictionary) {
	if d == nil {
		return
	}
	s.dict = d
	s.classifier.SetDictionary(d)
	s.resolver.SetDictionary(d)
	s.reg.SetDictionary(d)
	debugf("dictionary replaced")
}

// PollDictionary applies the newest dictionary waiting on w, if any, and
// returns the first reload error. It never blocks.
func (s *Session) PollDictionary(w *DictionaryWatcher) error {
	var latest *Dictionary
	var firstErr error
drain:
	for {
		select {
		case d, ok := <-w.Updates:
			if !ok {
				break drain
			}
			latest = d
		case err, ok := <-w.Errors:
			if !ok {
				break drain
			}
			if firstErr == nil {
				firstErr = err
			}
		default:
			break drain
		}
	}
	if latest != nil {
		s.SetDictionary(latest)
	}
	return firstErr
}

// Selected returns the current selection, or nil.
func (s *Session) Selected() *Record {
	if s.selected != nil && s.selected.Disposed() {
		s.selected = nil
	}
	return s.selected
}

// Select makes the record with id the current selection.
func (s *Session) Select(id string) error {
	rec, ok := s.reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTarget, id)
	}
	s.setSelected(rec, "")
	return nil
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.selected = nil
}

func (s *Session) setSelected(rec *Record, text string) {
	if s.selected == rec {
		return
	}
	s.selected = rec
	s.emit(EventSelected, rec, IntentSelect, text, "")
}

// InFlight returns the number of generation requests not yet polled.
func (s *Session) InFlight() int {
	return s.inFlight
}

// PendingDelete returns the record waiting for Confirm, or nil.
func (s *Session) PendingDelete() *Record {
	if s.pending == nil {
		return nil
	}
	return s.pending.rec
}

// Submit runs one user command. ctx is handed to the generator for
// generate commands and is not used otherwise. A new submission drops any
// delete still waiting for confirmation.
func (s *Session) Submit(ctx context.Context, text string) Outcome {
	if s.pending != nil {
		debugf("pending delete of %s dropped", s.pending.rec.ID)
		s.pending = nil
	}

	cmd := s.classifier.Classify(text, s.Selected() != nil)
	out := Outcome{Command: cmd}

	switch cmd.Intent {
	case IntentEmpty:
		out.Err = ErrEmptyCommand
	case IntentGenerate:
		s.generate(ctx, text, &out)
	case IntentImport:
		s.importFromText(text, &out)
	case IntentSelect:
		if rec := s.target(&out); rec != nil {
			s.setSelected(rec, cmd.Text)
			out.Message = "selected " + label(rec)
		}
	case IntentDelete:
		if rec := s.target(&out); rec != nil {
			s.pending = &pendingDelete{rec: rec, cmd: cmd}
			out.Pending = true
			out.Message = "delete " + label(rec) + "?"
		}
	case IntentModify:
		if rec := s.target(&out); rec != nil {
			s.modify(rec, &out)
		}
	}
	return out
}

// target resolves the command's target, or takes the selection when the
// command does not need one. Failures are recorded on out.
func (s *Session) target(out *Outcome) *Record {
	cmd := out.Command
	if !cmd.NeedsTarget {
		if sel := s.Selected(); sel != nil {
			out.Target = sel
			return sel
		}
	}
	rec, err := s.resolver.Resolve(cmd.TargetPhrase, s.reg, ResolveContext{Intent: cmd.Intent, Selected: s.Selected()})
	if err != nil {
		out.Err = err
		out.Message = "which object? " + describeResolveError(err)
		return nil
	}
	out.Target = rec
	return rec
}

func describeResolveError(err error) string {
	if errors.Is(err, ErrInvalidOrdinal) {
		return "there are not that many"
	}
	return "nothing matches"
}

// colorEffects take a color from the command instead of recoloring the
// object ("赤く光らせて" glows red).
var colorEffects = map[EffectKind]bool{EffectGlow: true, EffectSparkle: true}

func (s *Session) modify(rec *Record, out *Outcome) {
	cmd := out.Command
	d := cmd.Deltas

	var effectColor *Color
	for _, k := range d.Effects {
		if colorEffects[k] && d.Color != nil {
			effectColor = d.Color
			d.Color = nil
			break
		}
	}

	var msgs []string
	if d.ClearEffects {
		out.Cleared = s.anim.ClearAll(rec)
		if out.Cleared > 0 {
			s.reg.Touch(rec, "effects", "cleared")
			s.emit(EventEffectsCleared, rec, cmd.Intent, cmd.Text, fmt.Sprintf("%d", out.Cleared))
		}
		msgs = append(msgs, fmt.Sprintf("cleared %d effect(s)", out.Cleared))
	}
	for _, k := range d.StopEffects {
		if !s.anim.ClearEffect(rec, k) {
			msgs = append(msgs, k.String()+" was not running")
			continue
		}
		out.Cleared++
		out.Stopped = append(out.Stopped, k)
		s.reg.Touch(rec, "effect", "stopped "+k.String())
		s.emit(EventEffectsCleared, rec, cmd.Intent, cmd.Text, k.String())
		msgs = append(msgs, "stopped "+k.String())
	}

	if d.HasAttributes() {
		res := s.mutator.Apply(rec, d)
		out.Mutation = &res
		if res.Applied {
			s.emit(EventModified, rec, cmd.Intent, cmd.Text, res.Summary)
		}
		msgs = append(msgs, res.Summary)
	}

	var effectErr error
	for _, k := range d.Effects {
		params := DefaultEffectParams(k)
		if k == EffectMaterial && d.MaterialPreset != "" {
			params.Preset = d.MaterialPreset
		}
		if effectColor != nil && colorEffects[k] {
			params.Color = *effectColor
		}
		if err := s.anim.RequestEffect(rec, k, params); err != nil {
			if effectErr == nil {
				effectErr = err
			}
			msgs = append(msgs, k.String()+" unsupported")
			continue
		}
		out.Effects = append(out.Effects, k)
		s.reg.Touch(rec, "effect", k.String())
		s.emit(EventEffectStarted, rec, cmd.Intent, cmd.Text, k.String())
	}

	s.setSelected(rec, cmd.Text)

	if len(msgs) == 0 {
		out.Message = "selected " + label(rec)
		return
	}
	out.Message = label(rec) + ": " + strings.Join(msgs, "; ")

	applied := out.Mutation != nil && out.Mutation.Applied
	if !applied && len(out.Effects) == 0 && out.Cleared == 0 && !d.ClearEffects && len(d.StopEffects) == 0 {
		switch {
		case out.Mutation != nil && len(out.Mutation.Skipped) > 0:
			out.Err = out.Mutation.Skipped[0].Err
		case effectErr != nil:
			out.Err = effectErr
		}
	}
}

// Confirm carries out the pending delete.
func (s *Session) Confirm() Outcome {
	p := s.pending
	if p == nil {
		return Outcome{Err: ErrNothingPending}
	}
	s.pending = nil
	out := Outcome{Command: p.cmd, Target: p.rec}
	if _, ok := s.reg.Get(p.rec.ID); !ok {
		out.Err = fmt.Errorf("%w: %s", ErrDisposed, p.rec.ID)
		return out
	}
	// Emitted first so the sink still sees the live node id.
	s.emit(EventDeleted, p.rec, IntentDelete, p.cmd.Text, "")
	s.reg.Dispose(p.rec.ID)
	if s.selected == p.rec {
		s.selected = nil
	}
	out.Message = "deleted " + label(p.rec)
	return out
}

// Cancel drops the pending delete.
func (s *Session) Cancel() error {
	if s.pending == nil {
		return ErrNothingPending
	}
	debugf("delete of %s cancelled", s.pending.rec.ID)
	s.pending = nil
	return nil
}

// Import registers a file-backed object named filename and selects it.
func (s *Session) Import(filename string) Outcome {
	cmd := ParsedCommand{Intent: IntentImport, Confidence: 1, Text: Normalize(filename)}
	rec := s.spawn(SourceImportedFile, filename, filename)
	s.emit(EventCreated, rec, IntentImport, filename, filename)
	s.setSelected(rec, filename)
	return Outcome{Command: cmd, Target: rec, Message: "imported " + label(rec)}
}

func (s *Session) importFromText(text string, out *Outcome) {
	name := filenameRe.FindString(text)
	if name == "" {
		out.NeedsFile = true
		out.Message = "choose a file to import"
		return
	}
	imp := s.Import(name)
	out.Target = imp.Target
	out.Message = imp.Message
}

func (s *Session) spawn(kind SourceKind, prompt, assetURL string) *Record {
	n := s.cfg.NodeFactory(kind, prompt, assetURL)
	id := s.reg.Create(kind, prompt, n)
	rec, _ := s.reg.Get(id)
	if s.cfg.SpawnDuration > 0 && n != nil && assetURL != "" {
		s.anim.AddSpawn(id, spawnTween(n, s.cfg.SpawnDuration))
	}
	return rec
}

func (s *Session) generate(ctx context.Context, text string, out *Outcome) {
	cmd := out.Command
	if s.cfg.Generator == nil {
		out.Err = fmt.Errorf("%w: no generator configured", ErrGenerationFailed)
		out.Message = "generation is not available"
		return
	}

	source := SourceGeneratedImage
	switch {
	case modelRe.MatchString(cmd.Text):
		source = SourceGeneratedModel
	case cmd.Media == MediaVideo:
		source = SourceGeneratedVideo
	}
	req := GenerationRequest{Prompt: strings.TrimSpace(text), Media: cmd.Media, Source: source}

	var recordID string
	if s.cfg.Placeholders {
		rec := s.spawn(source, req.Prompt, "")
		rec.Status = StatusPending
		recordID = rec.ID
		out.Target = rec
		s.emit(EventCreated, rec, IntentGenerate, cmd.Text, "pending")
	}

	s.inFlight++
	gen := s.cfg.Generator
	go func() {
		res, err := gen.Generate(ctx, req)
		s.results <- generationDone{cmd: cmd, req: req, recordID: recordID, res: res, err: err}
	}()

	out.Pending = true
	out.Message = "generating " + req.kind() + ": " + req.Prompt
}

// Poll hands finished generations back to the registry. The host calls it
// once per frame; it never blocks.
func (s *Session) Poll() []Outcome {
	var outs []Outcome
	for {
		select {
		case done := <-s.results:
			s.inFlight--
			outs = append(outs, s.finish(done))
			continue
		default:
		}
		return outs
	}
}

// Wait blocks until every in-flight generation has finished and applies
// them, like Poll. Headless tools use it instead of a frame loop.
func (s *Session) Wait(ctx context.Context) ([]Outcome, error) {
	var outs []Outcome
	for s.inFlight > 0 {
		select {
		case done := <-s.results:
			s.inFlight--
			outs = append(outs, s.finish(done))
		case <-ctx.Done():
			return outs, ctx.Err()
		}
	}
	return outs, nil
}

func (s *Session) finish(done generationDone) Outcome {
	out := Outcome{Command: done.cmd}
	err := done.err
	if err == nil && (!done.res.Success || done.res.AssetURL == "") {
		msg := done.res.Error
		if msg == "" {
			msg = "no asset returned"
		}
		err = fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
	}
	if err != nil && !errors.Is(err, ErrGenerationFailed) {
		err = fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if done.recordID != "" {
		rec, ok := s.reg.Get(done.recordID)
		if !ok {
			// Deleted while the request was in flight.
			out.Err = err
			out.Message = "generation finished for a deleted object"
			return out
		}
		out.Target = rec
		if err != nil {
			s.reg.MarkFailed(rec.ID, err)
			s.emit(EventFailed, rec, IntentGenerate, done.cmd.Text, err.Error())
			out.Err = err
			out.Message = "generation failed: " + label(rec)
			return out
		}
		rec.Status = StatusReady
		if rec.Node != nil {
			rec.Node.AssetURL = done.res.AssetURL
			if s.cfg.SpawnDuration > 0 {
				s.anim.AddSpawn(rec.ID, spawnTween(rec.Node, s.cfg.SpawnDuration))
			}
		}
		s.reg.Touch(rec, "asset", done.res.AssetURL)
		s.emit(EventModified, rec, IntentGenerate, done.cmd.Text, "asset ready")
		s.setSelected(rec, done.cmd.Text)
		out.Message = "generated " + label(rec)
		return out
	}

	if err != nil {
		s.emit(EventFailed, nil, IntentGenerate, done.cmd.Text, err.Error())
		out.Err = err
		out.Message = "generation failed"
		return out
	}
	rec := s.spawn(done.req.Source, done.req.Prompt, done.res.AssetURL)
	s.emit(EventCreated, rec, IntentGenerate, done.cmd.Text, done.res.AssetURL)
	s.setSelected(rec, done.cmd.Text)
	out.Target = rec
	out.Message = "generated " + label(rec)
	return out
}

func (s *Session) emit(t EventType, rec *Record, intent IntentType, text, detail string) {
	if s.sink == nil {
		return
	}
	ev := Event{Type: t, Intent: intent, Text: text, Detail: detail}
	if rec != nil {
		ev.ObjectID = rec.ID
		if rec.Node != nil {
			ev.NodeID = rec.Node.ID
		}
	}
	s.sink.EmitEvent(ev)
}

func label(rec *Record) string {
	if rec.Prompt == "" {
		return rec.ID
	}
	return fmt.Sprintf("%s (%s)", rec.ID, rec.Prompt)
}
