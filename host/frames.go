package host

import "github.com/phanxgames/sprout"

// Frames is the sprout.FrameSource of an Ebitengine game: its clock advances
// by one tick per Update and queued callbacks run once per tick. The queue
// and clock are sprout.ManualFrames; only the stepping is driven by the game.
type Frames struct {
	sprout.ManualFrames
}

// step advances the clock by one tick of dt seconds.
func (f *Frames) step(dt float64) {
	f.Advance(dt)
}
