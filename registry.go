package sprout

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// RecordStatus is the terminal state of the request that produced a record.
type RecordStatus uint8

const (
	StatusReady   RecordStatus = iota // node is live and usable
	StatusPending                     // placeholder waiting for its generated asset
	StatusFailed                      // upstream generation failed after the record existed
)

func (s RecordStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	}
	return "ready"
}

// Modification is one entry of a record's append-only history.
type Modification struct {
	At     time.Time
	Field  string
	Detail string
}

// Record is one user-visible object: the live node plus everything the
// engine knows about where it came from.
type Record struct {
	ID     string
	Node   *Node
	Source SourceKind
	Prompt string // free text or filename

	// Hints is the set of normalized tokens, taxonomy tags and tag aliases
	// derived from Prompt.
	Hints map[string]bool

	CreatedAt    time.Time
	LastModified time.Time // zero until the first modification
	History      []Modification

	Seq       int // 1-based creation order
	ImportSeq int // 1-based import order; 0 for generated records

	Status RecordStatus
	Err    error

	touch    int // registry-wide sequence of the latest create/modify
	disposed bool
}

// HasHint reports whether h is one of the record's keyword hints.
func (r *Record) HasHint(h string) bool {
	return r.Hints[h]
}

// HintList returns the hints sorted, for display.
func (r *Record) HintList() []string {
	out := make([]string, 0, len(r.Hints))
	for h := range r.Hints {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Disposed reports whether the record has been removed from its registry.
func (r *Record) Disposed() bool {
	return r.disposed
}

// recency is the timestamp used to order records by "most recent".
func (r *Record) recency() time.Time {
	if !r.LastModified.IsZero() {
		return r.LastModified
	}
	return r.CreatedAt
}

// EffectTerminator is implemented by whatever holds effect instances for
// records (the Animator). The registry calls it on dispose so no effect
// outlives its object.
type EffectTerminator interface {
	DropObject(id string)
}

// Registry is the authoritative map from object id to live node and
// metadata. It is not safe for concurrent use; like the rest of the engine it
// lives on the frame thread.
type Registry struct {
	dict    *Dictionary
	records map[string]*Record
	order   []*Record
	counter int
	imports int
	touches int
	effects EffectTerminator
	now     func() time.Time
}

// NewRegistry creates an empty registry that derives hints with dict.
func NewRegistry(dict *Dictionary) *Registry {
	return &Registry{
		dict:    dict,
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// SetEffects attaches the effect holder that dispose must notify.
func (r *Registry) SetEffects(t EffectTerminator) {
	r.effects = t
}

// SetClock replaces the timestamp source.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// SetDictionary swaps the dictionary and recomputes every record's hints.
func (r *Registry) SetDictionary(d *Dictionary) {
	r.dict = d
	for _, rec := range r.order {
		rec.Hints = computeHints(d, rec.Prompt)
	}
}

// Dictionary returns the dictionary used for hints.
func (r *Registry) Dictionary() *Dictionary {
	return r.dict
}

// Create registers node under a fresh id and returns the id. Ids are never
// reused, even after dispose.
func (r *Registry) Create(kind SourceKind, prompt string, node *Node) string {
	r.counter++
	r.touches++
	rec := &Record{
		ID:        "obj-" + strconv.Itoa(r.counter),
		Node:      node,
		Source:    kind,
		Prompt:    prompt,
		Hints:     computeHints(r.dict, prompt),
		CreatedAt: r.now(),
		Seq:       r.counter,
		touch:     r.touches,
	}
	if kind == SourceImportedFile {
		r.imports++
		rec.ImportSeq = r.imports
	}
	if node != nil && node.Name == "" {
		node.Name = rec.ID
	}
	r.records[rec.ID] = rec
	r.order = append(r.order, rec)
	debugf("create %s (%s) %q", rec.ID, kind, prompt)
	return rec.ID
}

// Get returns the live record for id.
func (r *Registry) Get(id string) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// All returns the live records in creation order. The slice is a copy.
func (r *Registry) All() []*Record {
	out := make([]*Record, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	return len(r.order)
}

// Imported returns the live imported records in import order.
func (r *Registry) Imported() []*Record {
	var out []*Record
	for _, rec := range r.order {
		if rec.Source == SourceImportedFile {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ImportSeq < out[j].ImportSeq })
	return out
}

// Generated returns the live generated records in creation order.
func (r *Registry) Generated() []*Record {
	var out []*Record
	for _, rec := range r.order {
		if rec.Source.Generated() {
			out = append(out, rec)
		}
	}
	return out
}

// Dispose removes the record, terminates its effects and releases its node.
// Disposing an unknown or already disposed id is a no-op that returns false.
func (r *Registry) Dispose(id string) bool {
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	if r.effects != nil {
		r.effects.DropObject(id)
	}
	delete(r.records, id)
	for i, o := range r.order {
		if o == rec {
			copy(r.order[i:], r.order[i+1:])
			r.order[len(r.order)-1] = nil
			r.order = r.order[:len(r.order)-1]
			break
		}
	}
	rec.disposed = true
	if rec.Node != nil {
		rec.Node.Dispose()
	}
	debugf("dispose %s", id)
	return true
}

// Touch appends a modification to rec's history and bumps LastModified.
func (r *Registry) Touch(rec *Record, field, detail string) {
	r.touches++
	now := r.now()
	rec.LastModified = now
	rec.touch = r.touches
	rec.History = append(rec.History, Modification{At: now, Field: field, Detail: detail})
}

// MarkFailed records a terminal upstream failure on an existing record.
func (r *Registry) MarkFailed(id string, err error) bool {
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.Status = StatusFailed
	rec.Err = err
	r.Touch(rec, "status", fmt.Sprintf("failed: %v", err))
	return true
}

// byRecency sorts records most recent first: LastModified, else CreatedAt,
// with the registry's touch sequence breaking timestamp ties.
func byRecency(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		ti, tj := recs[i].recency(), recs[j].recency()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return recs[i].touch > recs[j].touch
	})
}

// computeHints derives the keyword hint set for a prompt or filename.
func computeHints(dict *Dictionary, prompt string) map[string]bool {
	text := stripExt(Normalize(prompt))
	hints := make(map[string]bool)
	for _, tok := range Tokens(text) {
		hints[tok] = true
	}
	if dict == nil {
		return hints
	}
	for _, tag := range dict.Tags(text) {
		hints[tag] = true
		for _, a := range dict.Aliases(tag) {
			hints[a] = true
		}
	}
	return hints
}
