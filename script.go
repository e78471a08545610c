package sprout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a command script.
type scriptStep struct {
	Action string `json:"action" yaml:"action"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Frames int    `json:"frames,omitempty" yaml:"frames,omitempty"`

	// expect fields
	Intent   string   `json:"intent,omitempty" yaml:"intent,omitempty"`
	Target   string   `json:"target,omitempty" yaml:"target,omitempty"`
	Selected string   `json:"selected,omitempty" yaml:"selected,omitempty"`
	Count    *int     `json:"count,omitempty" yaml:"count,omitempty"`
	Effects  []string `json:"effects,omitempty" yaml:"effects,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// script is the top-level structure of a command script.
type script struct {
	Steps []scriptStep `json:"steps" yaml:"steps"`
}

// ScriptRunner plays a command script against a Session, one step per
// frame: say, import, confirm, cancel, wait and expect. Generation requests
// are polled while the runner waits for them, so a script can expect on
// their result in the next step.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	last     Outcome
	failures []error

	// OnOutcome, when set, is called with every outcome the script produces.
	OnOutcome func(action string, out Outcome)
}

// LoadScript parses a command script. JSON is detected by a leading '{';
// anything else is read as YAML.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &sc); err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "say", "import", "confirm", "cancel", "wait", "expect":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i+1, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Failures returns the expectations that did not hold, in step order.
func (r *ScriptRunner) Failures() []error {
	return r.failures
}

// Step advances the runner by one frame. Call it once per frame before the
// frame's tick.
func (r *ScriptRunner) Step(ctx context.Context, s *Session) {
	if r.done {
		return
	}
	// Wait for in-flight generations before advancing.
	if s.InFlight() > 0 {
		for _, out := range s.Poll() {
			r.record("generated", out)
		}
		if s.InFlight() > 0 {
			return
		}
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "say":
		r.record(st.Action, s.Submit(ctx, st.Text))
	case "import":
		r.record(st.Action, s.Import(st.File))
	case "confirm":
		r.record(st.Action, s.Confirm())
	case "cancel":
		if err := s.Cancel(); err != nil {
			r.record(st.Action, Outcome{Err: err})
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "expect":
		if err := r.check(st, s); err != nil {
			r.failures = append(r.failures, fmt.Errorf("step %d: %w", r.cursor, err))
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && s.InFlight() == 0 {
		r.done = true
	}
}

// Run steps the runner to completion, advancing frames by dt after every
// step. It returns the first failure, if any.
func (r *ScriptRunner) Run(ctx context.Context, s *Session, frames *ManualFrames, dt float64) error {
	for !r.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.InFlight() > 0 {
			outs, err := s.Wait(ctx)
			if err != nil {
				return err
			}
			for _, out := range outs {
				r.record("generated", out)
			}
		}
		r.Step(ctx, s)
		frames.Advance(dt)
	}
	if len(r.failures) > 0 {
		return r.failures[0]
	}
	return nil
}

func (r *ScriptRunner) record(action string, out Outcome) {
	r.last = out
	if r.OnOutcome != nil {
		r.OnOutcome(action, out)
	}
}

func (r *ScriptRunner) check(st scriptStep, s *Session) error {
	var problems []string
	if st.Intent != "" && r.last.Command.Intent.String() != st.Intent {
		problems = append(problems, fmt.Sprintf("intent = %s, want %s", r.last.Command.Intent, st.Intent))
	}
	if st.Target != "" && !recordIs(r.last.Target, st.Target) {
		problems = append(problems, fmt.Sprintf("target = %s, want %s", describe(r.last.Target), st.Target))
	}
	if st.Selected != "" && !recordIs(s.Selected(), st.Selected) {
		problems = append(problems, fmt.Sprintf("selected = %s, want %s", describe(s.Selected()), st.Selected))
	}
	if st.Count != nil && s.Registry().Len() != *st.Count {
		problems = append(problems, fmt.Sprintf("count = %d, want %d", s.Registry().Len(), *st.Count))
	}
	if len(st.Effects) > 0 {
		if r.last.Target == nil {
			problems = append(problems, "effects: no target")
		} else {
			for _, name := range st.Effects {
				kind, ok := ParseEffectKind(name)
				if !ok {
					problems = append(problems, "effects: unknown kind "+name)
					continue
				}
				if _, ok := s.Animator().Instance(r.last.Target.ID, kind); !ok {
					problems = append(problems, "effects: "+name+" not active")
				}
			}
		}
	}
	switch st.Error {
	case "":
	case "none":
		if r.last.Err != nil {
			problems = append(problems, fmt.Sprintf("error = %v, want none", r.last.Err))
		}
	default:
		if got := ErrorCode(r.last.Err); got != st.Error {
			problems = append(problems, fmt.Sprintf("error = %s, want %s", got, st.Error))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("expect: %s", strings.Join(problems, "; "))
	}
	return nil
}

// recordIs matches a record by id or by a substring of its prompt.
func recordIs(rec *Record, want string) bool {
	if rec == nil {
		return want == "none"
	}
	return rec.ID == want || strings.Contains(Normalize(rec.Prompt), Normalize(want))
}

func describe(rec *Record) string {
	if rec == nil {
		return "none"
	}
	return label(rec)
}
