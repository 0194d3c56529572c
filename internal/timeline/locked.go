package timeline

import "sync"

// Locked serializes access to a Controller. Composite edits run inside a
// single Do call so no other caller observes a half-applied operation.
type Locked struct {
	mu sync.Mutex
	c  *Controller
}

// NewLocked wraps c; c must not be used directly afterwards
func NewLocked(c *Controller) *Locked {
	return &Locked{c: c}
}

// Do runs fn with exclusive access to the controller
func (l *Locked) Do(fn func(*Controller) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.c)
}

// Snapshot returns the current derived view
func (l *Locked) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Snapshot()
}
