package sprout

import (
	"errors"
	"testing"
	"time"
)

type dropRecorder struct{ dropped []string }

func (d *dropRecorder) DropObject(id string) { d.dropped = append(d.dropped, id) }

func TestRegistryIDsNeverReused(t *testing.T) {
	reg := newTestRegistry()
	a := reg.Create(SourceGeneratedImage, "a", NewNode("", nil))
	reg.Dispose(a)
	b := reg.Create(SourceGeneratedImage, "b", NewNode("", nil))

	if a == b {
		t.Errorf("id %s reused after dispose", a)
	}
	if a != "obj-1" || b != "obj-2" {
		t.Errorf("ids = %s, %s; want obj-1, obj-2", a, b)
	}
}

func TestRegistryCreateNamesNode(t *testing.T) {
	reg := newTestRegistry()
	n := NewNode("", nil)
	id := reg.Create(SourceImportedFile, "cat.png", n)
	if n.Name != id {
		t.Errorf("Name = %q, want %q", n.Name, id)
	}

	named := NewNode("keep", nil)
	reg.Create(SourceImportedFile, "dog.png", named)
	if named.Name != "keep" {
		t.Errorf("Name = %q, want keep", named.Name)
	}
}

func TestRegistryImportedOrder(t *testing.T) {
	reg := newTestRegistry()
	a := addRecord(reg, SourceImportedFile, "a.png")
	addRecord(reg, SourceGeneratedImage, "sunset")
	b := addRecord(reg, SourceImportedFile, "b.png")

	imp := reg.Imported()
	if len(imp) != 2 || imp[0] != a || imp[1] != b {
		t.Fatalf("Imported = %v, want [a b]", imp)
	}
	if a.ImportSeq != 1 || b.ImportSeq != 2 {
		t.Errorf("ImportSeq = %d, %d; want 1, 2", a.ImportSeq, b.ImportSeq)
	}
	if gen := reg.Generated(); len(gen) != 1 || gen[0].Prompt != "sunset" {
		t.Errorf("Generated = %v, want [sunset]", gen)
	}

	reg.Dispose(a.ID)
	if imp := reg.Imported(); len(imp) != 1 || imp[0] != b {
		t.Errorf("Imported after dispose = %v, want [b]", imp)
	}
	if b.ImportSeq != 2 {
		t.Errorf("ImportSeq changed to %d after dispose", b.ImportSeq)
	}
}

func TestRegistryDispose(t *testing.T) {
	reg := newTestRegistry()
	drops := &dropRecorder{}
	reg.SetEffects(drops)

	hookRan := false
	rec := addRecord(reg, SourceGeneratedImage, "orb")
	rec.Node.OnDispose = func(*Node) { hookRan = true }

	if !reg.Dispose(rec.ID) {
		t.Fatal("Dispose returned false")
	}
	if len(drops.dropped) != 1 || drops.dropped[0] != rec.ID {
		t.Errorf("DropObject calls = %v, want [%s]", drops.dropped, rec.ID)
	}
	if !hookRan {
		t.Error("node OnDispose did not run")
	}
	if !rec.Disposed() || !rec.Node.IsDisposed() {
		t.Error("record or node not marked disposed")
	}
	if _, ok := reg.Get(rec.ID); ok {
		t.Error("Get still finds the disposed record")
	}
	if reg.Len() != 0 || len(reg.All()) != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
	if reg.Dispose(rec.ID) {
		t.Error("second Dispose returned true")
	}
	if len(drops.dropped) != 1 {
		t.Errorf("DropObject called %d times, want 1", len(drops.dropped))
	}
}

func TestRegistryAllIsACopy(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceGeneratedImage, "a")
	all := reg.All()
	all[0] = nil
	if reg.All()[0] == nil {
		t.Error("All exposed the registry's slice")
	}
}

func TestRegistryTouch(t *testing.T) {
	reg := NewRegistry(DefaultDictionary())
	at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	reg.SetClock(func() time.Time { return at })

	rec := addRecord(reg, SourceGeneratedImage, "bird")
	if !rec.LastModified.IsZero() {
		t.Error("LastModified set before any modification")
	}
	if !rec.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, at)
	}

	at = at.Add(time.Minute)
	reg.Touch(rec, "scale", "x2")
	reg.Touch(rec, "color", "#ff0000")

	if !rec.LastModified.Equal(at) {
		t.Errorf("LastModified = %v, want %v", rec.LastModified, at)
	}
	if len(rec.History) != 2 || rec.History[0].Field != "scale" || rec.History[1].Detail != "#ff0000" {
		t.Errorf("History = %+v", rec.History)
	}
}

func TestRegistryMarkFailed(t *testing.T) {
	reg := newTestRegistry()
	rec := addRecord(reg, SourceGeneratedVideo, "waves")
	rec.Status = StatusPending

	cause := errors.New("upstream 500")
	if !reg.MarkFailed(rec.ID, cause) {
		t.Fatal("MarkFailed returned false")
	}
	if rec.Status != StatusFailed || rec.Err != cause {
		t.Errorf("Status = %s Err = %v", rec.Status, rec.Err)
	}
	if n := len(rec.History); n != 1 || rec.History[0].Field != "status" {
		t.Errorf("History = %+v, want one status entry", rec.History)
	}
	if reg.MarkFailed("obj-99", cause) {
		t.Error("MarkFailed on unknown id returned true")
	}
}

func TestRegistryHints(t *testing.T) {
	reg := newTestRegistry()
	rec := addRecord(reg, SourceImportedFile, "Cat-Photo.PNG")

	for _, h := range []string{"cat", "photo", "猫"} {
		if !rec.HasHint(h) {
			t.Errorf("missing hint %q in %v", h, rec.HintList())
		}
	}
	if rec.HasHint("png") {
		t.Error("file extension leaked into hints")
	}
}

func TestRegistrySetDictionaryRecomputesHints(t *testing.T) {
	reg := newTestRegistry()
	rec := addRecord(reg, SourceGeneratedImage, "a wyvern")
	if rec.HasHint("ワイバーン") {
		t.Fatal("default dictionary should not know wyverns")
	}

	d, err := ParseDictionary([]byte("nouns:\n  - tag: wyvern\n    aliases: [wyvern, ワイバーン]\n"))
	if err != nil {
		t.Fatal(err)
	}
	reg.SetDictionary(d)
	if !rec.HasHint("ワイバーン") {
		t.Errorf("hints after SetDictionary = %v", rec.HintList())
	}
}

func TestByRecencyTieBreak(t *testing.T) {
	reg := newTestRegistry()
	a := addRecord(reg, SourceGeneratedImage, "a")
	b := addRecord(reg, SourceGeneratedImage, "b")

	recs := []*Record{a, b}
	byRecency(recs)
	if recs[0] != b {
		t.Errorf("most recent = %s, want b", recs[0].Prompt)
	}

	reg.Touch(a, "scale", "x2")
	byRecency(recs)
	if recs[0] != a {
		t.Errorf("most recent after touch = %s, want a", recs[0].Prompt)
	}
}
