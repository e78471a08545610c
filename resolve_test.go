package sprout

import (
	"errors"
	"testing"
	"time"
)

// newTestRegistry returns a registry with a frozen clock so recency falls
// back to the touch order.
func newTestRegistry() *Registry {
	reg := NewRegistry(DefaultDictionary())
	at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	reg.SetClock(func() time.Time { return at })
	return reg
}

func addRecord(reg *Registry, kind SourceKind, prompt string) *Record {
	ch := ChannelsTextured
	if kind == SourceGeneratedModel {
		ch = ChannelsStandard
	}
	id := reg.Create(kind, prompt, NewNode("", NewMaterial(ch)))
	rec, _ := reg.Get(id)
	return rec
}

func resolve(t *testing.T, reg *Registry, phrase string, rc ResolveContext) (*Record, error) {
	t.Helper()
	return NewResolver(reg.Dictionary()).Resolve(phrase, reg, rc)
}

func TestResolveOrdinalImported(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "a.png")
	addRecord(reg, SourceGeneratedImage, "a sunset")
	b := addRecord(reg, SourceImportedFile, "b.png")
	addRecord(reg, SourceImportedFile, "c.png")

	for _, phrase := range []string{"the 2nd one I imported", "2番目にインポートしたもの", "second imported"} {
		got, err := resolve(t, reg, phrase, ResolveContext{})
		if err != nil {
			t.Errorf("Resolve(%q): %v", phrase, err)
			continue
		}
		if got != b {
			t.Errorf("Resolve(%q) = %s, want %s", phrase, got.Prompt, b.Prompt)
		}
	}
}

func TestResolveOrdinalFiltersByName(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "cat-a.png")
	addRecord(reg, SourceImportedFile, "dog.png")
	catB := addRecord(reg, SourceImportedFile, "cat-b.png")

	got, err := resolve(t, reg, "2番目にインポートした猫を削除", ResolveContext{Intent: IntentDelete})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != catB {
		t.Errorf("Resolve = %s, want cat-b.png", got.Prompt)
	}
}

func TestResolveInvalidOrdinal(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "cat-a.png")
	addRecord(reg, SourceImportedFile, "cat-b.png")

	_, err := resolve(t, reg, "5番目の猫", ResolveContext{})
	if !errors.Is(err, ErrInvalidOrdinal) {
		t.Errorf("err = %v, want ErrInvalidOrdinal", err)
	}
	if ErrorCode(err) != "invalid-ordinal" {
		t.Errorf("ErrorCode = %q", ErrorCode(err))
	}
}

func TestResolveKeywordBothLanguages(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceGeneratedImage, "a blue bird")
	flower := addRecord(reg, SourceGeneratedImage, "a small red flower")
	addRecord(reg, SourceGeneratedImage, "mountains at dawn")

	for _, phrase := range []string{"flower", "花", "the flower", "花を", "はな"} {
		got, err := resolve(t, reg, phrase, ResolveContext{})
		if err != nil {
			t.Errorf("Resolve(%q): %v", phrase, err)
			continue
		}
		if got != flower {
			t.Errorf("Resolve(%q) = %s, want the flower", phrase, got.Prompt)
		}
	}
}

func TestResolveKeywordPromptSubstring(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceGeneratedImage, "夕焼けの海辺")
	tower := addRecord(reg, SourceGeneratedImage, "東京タワーの夜景")

	got, err := resolve(t, reg, "東京タワー", ResolveContext{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != tower {
		t.Errorf("Resolve = %s, want the tower", got.Prompt)
	}
}

func TestResolveNoTargetNeverGuesses(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "cat-a.png")
	addRecord(reg, SourceGeneratedImage, "a red flower")

	for _, phrase := range []string{"犬", "the dragon", "さっきの犬", "2番目の犬"} {
		rec, err := resolve(t, reg, phrase, ResolveContext{})
		if !errors.Is(err, ErrNoTarget) {
			t.Errorf("Resolve(%q) err = %v, want ErrNoTarget", phrase, err)
		}
		if rec != nil {
			t.Errorf("Resolve(%q) returned %s alongside an error", phrase, rec.ID)
		}
	}

	empty := newTestRegistry()
	if _, err := resolve(t, empty, "それ", ResolveContext{}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("empty registry: err = %v, want ErrNoTarget", err)
	}
}

func TestResolveSourceType(t *testing.T) {
	reg := newTestRegistry()
	imported := addRecord(reg, SourceImportedFile, "cat.png")
	generated := addRecord(reg, SourceGeneratedImage, "a cute cat")

	got, err := resolve(t, reg, "生成した猫", ResolveContext{})
	if err != nil || got != generated {
		t.Errorf("生成した猫 = %v, %v; want the generated cat", got, err)
	}
	got, err = resolve(t, reg, "the cat I imported", ResolveContext{})
	if err != nil || got != imported {
		t.Errorf("the cat I imported = %v, %v; want the imported cat", got, err)
	}
}

func TestResolveReferentialMostRecent(t *testing.T) {
	reg := newTestRegistry()
	first := addRecord(reg, SourceGeneratedImage, "a dog")
	addRecord(reg, SourceGeneratedImage, "a cat")
	reg.Touch(first, "scale", "x1.50")

	for _, phrase := range []string{"さっきの", "the last one", "前のやつ"} {
		got, err := resolve(t, reg, phrase, ResolveContext{})
		if err != nil || got != first {
			t.Errorf("Resolve(%q) = %v, %v; want the touched dog", phrase, got, err)
		}
	}
}

func TestResolveReferentialRespectsSourceClass(t *testing.T) {
	reg := newTestRegistry()
	photo := addRecord(reg, SourceImportedFile, "photo.jpg")
	addRecord(reg, SourceGeneratedImage, "a castle")

	got, err := resolve(t, reg, "the last one I imported", ResolveContext{})
	if err != nil || got != photo {
		t.Errorf("Resolve = %v, %v; want the imported photo", got, err)
	}
}

func TestResolveDemonstrativePrefersSelection(t *testing.T) {
	reg := newTestRegistry()
	a := addRecord(reg, SourceGeneratedImage, "a dog")
	addRecord(reg, SourceGeneratedImage, "a cat")

	got, err := resolve(t, reg, "それ", ResolveContext{Selected: a})
	if err != nil || got != a {
		t.Errorf("それ with selection = %v, %v; want the selection", got, err)
	}

	reg.Dispose(a.ID)
	got, err = resolve(t, reg, "それ", ResolveContext{Selected: a})
	if err != nil || got == a {
		t.Errorf("それ after dispose = %v, %v; want the remaining cat", got, err)
	}
}

func TestResolveKeepsKanaNames(t *testing.T) {
	reg := newTestRegistry()
	cloud := addRecord(reg, SourceGeneratedImage, "くも")

	got, err := resolve(t, reg, "くもを", ResolveContext{})
	if err != nil || got != cloud {
		t.Errorf("くもを = %v, %v; want the cloud", got, err)
	}
}

func TestResolveTieGoesToRegistryOrder(t *testing.T) {
	reg := newTestRegistry()
	first := addRecord(reg, SourceGeneratedImage, "a cat")
	addRecord(reg, SourceGeneratedImage, "another cat")

	got, err := resolve(t, reg, "猫", ResolveContext{})
	if err != nil || got != first {
		t.Errorf("Resolve = %v, %v; want the first cat", got, err)
	}
}

func TestResolveHugeOrdinalIsInvalid(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "cat-a.png")
	addRecord(reg, SourceImportedFile, "cat-b.png")

	for _, phrase := range []string{"18446744073709551618番目", "18446744073709551617th imported"} {
		_, err := resolve(t, reg, phrase, ResolveContext{})
		if !errors.Is(err, ErrInvalidOrdinal) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidOrdinal", phrase, err)
		}
	}
}

func TestResolveEmptyPhraseUsesSelection(t *testing.T) {
	reg := newTestRegistry()
	addRecord(reg, SourceImportedFile, "cat.png")
	dog := addRecord(reg, SourceImportedFile, "dog.png")

	got, err := resolve(t, reg, "削除して", ResolveContext{Intent: IntentDelete, Selected: dog})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != dog {
		t.Errorf("Resolve = %s, want the selected dog", got.Prompt)
	}

	if _, err := resolve(t, reg, "削除して", ResolveContext{Intent: IntentDelete}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("without a selection err = %v, want ErrNoTarget", err)
	}
	if got, err := resolve(t, reg, "猫を削除して", ResolveContext{Intent: IntentDelete, Selected: dog}); err != nil || got == dog {
		t.Errorf("a named phrase fell back to the selection: %v, %v", got, err)
	}
}
