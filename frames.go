package sprout

// FrameSource is the host render loop as seen by the Animator. Now reports
// the frame clock in seconds; RequestFrame asks for fn to be called once on
// the next frame with the clock value of that frame. A host calls pending
// callbacks at most once per rendered frame.
type FrameSource interface {
	Now() float64
	RequestFrame(fn func(elapsed float64))
}

// ManualFrames is a FrameSource driven by explicit Advance calls. Headless
// tools and tests use it in place of a render loop.
type ManualFrames struct {
	now     float64
	pending []func(float64)
}

// Now returns the current clock value in seconds.
func (f *ManualFrames) Now() float64 {
	return f.now
}

// RequestFrame queues fn for the next Advance.
func (f *ManualFrames) RequestFrame(fn func(float64)) {
	f.pending = append(f.pending, fn)
}

// Pending reports whether any callback waits for the next frame.
func (f *ManualFrames) Pending() bool {
	return len(f.pending) > 0
}

// Advance moves the clock forward by dt seconds and runs the callbacks that
// were requested before this frame. Callbacks requested while running are
// kept for the following frame.
func (f *ManualFrames) Advance(dt float64) {
	f.now += dt
	run := f.pending
	f.pending = nil
	for _, fn := range run {
		fn(f.now)
	}
}

// Run advances n frames of dt seconds each.
func (f *ManualFrames) Run(n int, dt float64) {
	for i := 0; i < n; i++ {
		f.Advance(dt)
	}
}
