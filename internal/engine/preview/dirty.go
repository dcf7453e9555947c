package preview

// DefaultDirtyFrames is the settle count used when geometry, lighting or the
// render target change.
const DefaultDirtyFrames = 2

// Counter counts the frames still needed before the image is stable.
type Counter int

// Mark raises the counter to frames. It never lowers it.
func (c *Counter) Mark(frames int) {
	if frames > int(*c) {
		*c = Counter(frames)
	}
}

// Step consumes one frame.
func (c *Counter) Step() {
	if *c > 0 {
		*c--
	}
}

// Dirty reports whether more frames are needed.
func (c Counter) Dirty() bool {
	return c > 0
}
