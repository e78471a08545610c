// Package sprout turns free-form sentences, mostly Japanese with an English
// fallback, into changes to a live scene: create, select, modify, animate
// and delete objects.
//
// A sentence runs through a fixed pipeline:
//
//	text → Classifier → (target needed?) Resolver over Registry → Mutator / Animator
//
// [Classifier] assigns an intent with an ordered rule list and parses
// attribute deltas (color, scale, rotation, translation, opacity, flip and
// named effects). [Resolver] finds the object a phrase refers to by ordinal,
// source type, reference ("さっきの", "the last one") or keyword, and never
// guesses when nothing matches. [Mutator] applies deltas field by field and
// reports partial success. [Animator] keeps at most one effect per kind per
// object and evaluates them once per frame, going idle when nothing animates.
// [Registry] owns the records and their history.
//
// # Quick start
//
// [Session] wires everything together:
//
//	frames := &sprout.ManualFrames{}
//	s := sprout.NewSession(sprout.SessionConfig{Frames: frames, Generator: gen})
//	s.Import("cat-a.png")
//	s.Import("cat-b.png")
//	out := s.Submit(ctx, "2番目にインポートした猫を削除")
//	// out.Pending == true, out.Target is cat-b
//	s.Confirm()
//
// A host render loop implements [FrameSource] and calls [Session.Poll] once
// per frame to collect finished generations; see sprout/host for an
// Ebitengine host.
//
// # Vocabulary
//
// The bilingual dictionary is embedded YAML (nouns, colors and effect words).
// [LoadDictionaryFile] reads an override from disk and [WatchDictionary]
// reloads it as it changes.
//
// # Threading
//
// Everything in this package runs on one goroutine, the host's frame thread.
// Generation requests are the exception: they run in their own goroutines
// and hand their result back through [Session.Poll].
//
// Easing comes from [gween]; ECS integration lives in sprout/ecs ([Donburi]).
//
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package sprout
