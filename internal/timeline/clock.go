package timeline

// Clock holds the playhead and total duration of one asset.
// Duration 0 means the asset has not reported its length yet.
type Clock struct {
	current  float64
	duration float64

	// onChange runs after every successful SetDuration or Seek
	onChange func()
}

// CurrentTime returns the playhead position in seconds
func (c *Clock) CurrentTime() float64 { return c.current }

// Duration returns the asset length, 0 when unknown
func (c *Clock) Duration() float64 { return c.duration }

// Known reports whether a duration has been reported
func (c *Clock) Known() bool { return c.duration > 0 }

// SetDuration replaces the duration and re-clamps the playhead.
// Non-finite or non-positive values are ignored.
func (c *Clock) SetDuration(d float64) bool {
	if !finite(d) || d <= 0 {
		return false
	}
	c.duration = d
	c.current = clamp(c.current, 0, d)
	c.changed()
	return true
}

// Seek moves the playhead, clamped into [0, duration]
func (c *Clock) Seek(t float64) bool {
	if c.duration == 0 || !finite(t) {
		return false
	}
	c.current = clamp(t, 0, c.duration)
	c.changed()
	return true
}

// Reset returns the clock to the unloaded state
func (c *Clock) Reset() {
	c.current = 0
	c.duration = 0
}

func (c *Clock) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
