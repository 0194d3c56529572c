package timeline

import "fmt"

// Mode is the state of the delete/extract selection machine
type Mode int

const (
	Idle Mode = iota
	SelectingDelete
	SelectingExtract
	DeleteReady
	ExtractReady
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case SelectingDelete:
		return "selecting_delete"
	case SelectingExtract:
		return "selecting_extract"
	case DeleteReady:
		return "delete_ready"
	case ExtractReady:
		return "extract_ready"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText lets snapshots carry the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for candidate := Idle; candidate <= ExtractReady; candidate++ {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// SelectionKind names which interactive range a selection builds
type SelectionKind int

const (
	KindDelete SelectionKind = iota
	KindExtract
)

func (k SelectionKind) String() string {
	if k == KindExtract {
		return "extract"
	}
	return "delete"
}

func (k SelectionKind) selecting() Mode {
	if k == KindExtract {
		return SelectingExtract
	}
	return SelectingDelete
}

func (k SelectionKind) ready() Mode {
	if k == KindExtract {
		return ExtractReady
	}
	return DeleteReady
}

// Selection is the single state machine behind both the delete and the
// extract range pickers. Only one of them can be armed or ready at a time:
// arming either kind discards whatever the other one had.
type Selection struct {
	mode      Mode
	anchor    float64
	hasAnchor bool
	ready     *Range
	eps       float64
}

// NewSelection returns an idle machine enforcing the given minimum width
func NewSelection(eps float64) *Selection {
	return &Selection{eps: eps}
}

// Mode returns the current state
func (s *Selection) Mode() Mode { return s.mode }

// Anchor returns the first click of an in-progress selection
func (s *Selection) Anchor() (float64, bool) {
	return s.anchor, s.hasAnchor
}

// Kind reports which selection kind is active, if any
func (s *Selection) Kind() (SelectionKind, bool) {
	switch s.mode {
	case SelectingDelete, DeleteReady:
		return KindDelete, true
	case SelectingExtract, ExtractReady:
		return KindExtract, true
	}
	return 0, false
}

// Arm enters the selecting state of kind k from any state, dropping any
// anchor or ready range held before.
func (s *Selection) Arm(k SelectionKind) {
	s.reset()
	s.mode = k.selecting()
}

// Click feeds one timeline click at t, already clamped by the caller.
// The second click completes the range; a range no wider than the minimum
// width returns the machine to Idle.
func (s *Selection) Click(t float64) error {
	kind, ok := s.Kind()
	if !ok {
		return fmt.Errorf("click at %.3f: no selection armed: %w", t, ErrInvalidInput)
	}

	switch s.mode {
	case DeleteReady, ExtractReady:
		// a click on a finished selection starts picking a new one
		s.reset()
		s.mode = kind.selecting()
		s.anchor, s.hasAnchor = t, true
		return nil
	}

	if !s.hasAnchor {
		s.anchor, s.hasAnchor = t, true
		return nil
	}

	r := NewRange(s.anchor, t)
	if !IsValid(&r, s.eps) {
		s.reset()
		return fmt.Errorf("%s selection %s narrower than %.1fs: %w", kind, r, s.eps, ErrInvalidInput)
	}
	s.hasAnchor = false
	s.ready = &r
	s.mode = kind.ready()
	return nil
}

// Commit hands out the ready range of kind k and returns to Idle
func (s *Selection) Commit(k SelectionKind) (Range, error) {
	if s.mode != k.ready() || s.ready == nil {
		return Range{}, fmt.Errorf("commit %s in state %s: %w", k, s.mode, ErrIllegalCommit)
	}
	r := *s.ready
	s.reset()
	return r, nil
}

// Clear abandons any selection without emitting it
func (s *Selection) Clear() {
	s.reset()
}

// Revalidate checks the selection against a new duration. A ready range that
// no longer fits unchanged, or an anchor past the end, is discarded and the
// machine drops back to Idle. It returns true when something was discarded.
func (s *Selection) Revalidate(d float64) bool {
	switch s.mode {
	case DeleteReady, ExtractReady:
		clamped := ClampToDuration(s.ready, d)
		if !IsValid(clamped, s.eps) || *clamped != *s.ready {
			s.reset()
			return true
		}
	case SelectingDelete, SelectingExtract:
		if s.hasAnchor && s.anchor > d {
			s.reset()
			return true
		}
	}
	return false
}

// DeleteRange returns the ready delete range or nil
func (s *Selection) DeleteRange() *Range {
	if s.mode != DeleteReady {
		return nil
	}
	r := *s.ready
	return &r
}

// ExtractRange returns the ready extract range or nil
func (s *Selection) ExtractRange() *Range {
	if s.mode != ExtractReady {
		return nil
	}
	r := *s.ready
	return &r
}

func (s *Selection) reset() {
	s.mode = Idle
	s.anchor, s.hasAnchor = 0, false
	s.ready = nil
}
