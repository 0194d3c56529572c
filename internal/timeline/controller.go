package timeline

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Edge selects which trim bound AdjustTrim moves
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeEnd {
		return "end"
	}
	return "start"
}

// Options configures a Controller
type Options struct {
	// MinWidth is the minimum selection/trim width in seconds (default MinRangeWidth)
	MinWidth float64
	// TrimWindow caps the default trim range (default DefaultTrimWindow)
	TrimWindow float64
	// Sink receives finalized requests; nil drops them
	Sink Sink
}

// Controller is the timeline selection engine for one asset at a time.
// It is not safe for concurrent use; wrap it in Locked when callers race.
type Controller struct {
	logger zerolog.Logger
	opts   Options

	asset        string
	clock        Clock
	trim         Range
	trimTouched  bool
	selection    *Selection
	lastFailure  string
	dirty        bool
	observers    map[int]func(Snapshot)
	nextObserver int
}

// New creates a controller with no asset loaded
func New(logger zerolog.Logger, opts Options) *Controller {
	if opts.MinWidth <= 0 {
		opts.MinWidth = MinRangeWidth
	}
	if opts.TrimWindow <= 0 {
		opts.TrimWindow = DefaultTrimWindow
	}

	c := &Controller{
		logger:    logger.With().Str("component", "timeline").Logger(),
		opts:      opts,
		selection: NewSelection(opts.MinWidth),
		observers: make(map[int]func(Snapshot)),
	}
	c.clock.onChange = func() { c.dirty = true }
	return c
}

// SetSink replaces the request sink
func (c *Controller) SetSink(s Sink) {
	c.opts.Sink = s
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

// LoadAsset resets all state for a new asset. A hint that is not a positive
// finite number leaves the duration unknown until OnDurationReported.
func (c *Controller) LoadAsset(ref string, hint float64) {
	defer c.flush()

	c.asset = ref
	c.clock.Reset()
	c.selection.Clear()
	c.lastFailure = ""
	c.trimTouched = false

	known := 0.0
	if c.clock.SetDuration(hint) {
		known = hint
	}
	c.trim = Range{Start: 0, End: math.Min(c.opts.TrimWindow, known)}
	c.dirty = true

	c.logger.Debug().
		Str("asset", ref).
		Float64("duration", known).
		Msg("asset loaded")
}

// OnDurationReported applies a duration report from the media source.
// Repeated reports are fine; the latest one wins.
func (c *Controller) OnDurationReported(d float64) error {
	defer c.flush()

	if !c.clock.SetDuration(d) {
		return fmt.Errorf("duration %v: %w", d, ErrInvalidInput)
	}

	window := math.Min(c.opts.TrimWindow, d)
	switch {
	case !c.trimTouched:
		c.trim = Range{Start: 0, End: window}
	case d < c.trim.End:
		c.trim.End = window
		c.trim.Start = math.Min(c.trim.Start, math.Max(0, c.trim.End-c.opts.MinWidth))
	}

	if c.selection.Revalidate(d) {
		c.logger.Debug().
			Float64("duration", d).
			Err(ErrStaleSelection).
			Msg("selection discarded after duration change")
	}
	return nil
}

// Seek moves the playhead
func (c *Controller) Seek(t float64) error {
	defer c.flush()

	if err := c.checkTime("seek", t); err != nil {
		return err
	}
	c.clock.Seek(t)
	return nil
}

// OnTimelineClick routes a click to the armed selection, or seeks when idle
func (c *Controller) OnTimelineClick(t float64) error {
	defer c.flush()

	if err := c.checkTime("timeline click", t); err != nil {
		return err
	}
	t = clamp(t, 0, c.clock.Duration())

	if c.selection.Mode() == Idle {
		c.clock.Seek(t)
		return nil
	}
	err := c.selection.Click(t)
	c.dirty = true
	return err
}

// BeginDeleteSelection arms the delete picker, cancelling any extract selection
func (c *Controller) BeginDeleteSelection() error {
	return c.arm(KindDelete)
}

// BeginExtractSelection arms the extract picker, cancelling any delete selection
func (c *Controller) BeginExtractSelection() error {
	return c.arm(KindExtract)
}

func (c *Controller) arm(k SelectionKind) error {
	defer c.flush()

	if !c.clock.Known() {
		return fmt.Errorf("begin %s selection: duration unknown: %w", k, ErrOutOfRange)
	}
	if prev, ok := c.selection.Kind(); ok && prev != k {
		c.logger.Debug().
			Stringer("cancelled", prev).
			Stringer("armed", k).
			Msg("selection replaced")
	}
	c.selection.Arm(k)
	c.dirty = true
	return nil
}

// CancelSelection drops any in-progress or ready selection
func (c *Controller) CancelSelection() {
	defer c.flush()

	if c.selection.Mode() != Idle {
		c.selection.Clear()
		c.dirty = true
	}
}

// CommitDeleteRange emits the ready delete range and returns to Idle
func (c *Controller) CommitDeleteRange() (Range, error) {
	return c.commit(KindDelete, RequestDeleteRange)
}

// CommitExtractRange emits the ready extract range and returns to Idle
func (c *Controller) CommitExtractRange() (Range, error) {
	return c.commit(KindExtract, RequestExtractRange)
}

func (c *Controller) commit(k SelectionKind, kind RequestKind) (Range, error) {
	defer c.flush()

	// never commit against a duration the range was not picked for
	if c.selection.Revalidate(c.clock.Duration()) {
		c.dirty = true
		return Range{}, fmt.Errorf("commit %s: %w", k, ErrIllegalCommit)
	}
	r, err := c.selection.Commit(k)
	if err != nil {
		return Range{}, err
	}
	c.dirty = true
	c.emit(Request{Kind: kind, Range: r})
	return r, nil
}

// SetTrim replaces the trim range from explicit numeric entry
func (c *Controller) SetTrim(a, b float64) error {
	defer c.flush()

	if !finite(a) || !finite(b) {
		return fmt.Errorf("set trim %v..%v: %w", a, b, ErrInvalidInput)
	}
	if !c.clock.Known() {
		return fmt.Errorf("set trim: duration unknown: %w", ErrOutOfRange)
	}

	raw := NewRange(a, b)
	if raw.Width() < c.opts.MinWidth {
		return fmt.Errorf("set trim %s: narrower than %.1fs: %w", raw, c.opts.MinWidth, ErrInvalidInput)
	}
	r := ClampToDuration(&raw, c.clock.Duration())
	if r == nil || r.Width() < c.opts.MinWidth {
		return fmt.Errorf("set trim %s: outside %.3fs asset: %w", raw, c.clock.Duration(), ErrOutOfRange)
	}

	c.trim = *r
	c.trimTouched = true
	c.dirty = true
	return nil
}

// AdjustTrim moves one trim edge by delta, clamping so the range stays inside
// the asset and at least MinWidth wide.
func (c *Controller) AdjustTrim(edge Edge, delta float64) error {
	defer c.flush()

	if !finite(delta) {
		return fmt.Errorf("adjust trim %s by %v: %w", edge, delta, ErrInvalidInput)
	}
	d := c.clock.Duration()
	if d < c.opts.MinWidth {
		return fmt.Errorf("adjust trim %s: duration unknown: %w", edge, ErrOutOfRange)
	}

	eps := c.opts.MinWidth
	t := c.trim
	switch edge {
	case EdgeStart:
		t.Start = clamp(t.Start+delta, 0, math.Max(0, t.End-eps))
	case EdgeEnd:
		t.End = clamp(t.End+delta, math.Min(d, t.Start+eps), d)
	default:
		return fmt.Errorf("adjust trim: unknown edge %d: %w", edge, ErrInvalidInput)
	}
	if t.End-t.Start < eps-widthTolerance {
		// pre-existing trim narrower than eps (tiny asset); keep it as is
		return fmt.Errorf("adjust trim %s: no room inside %.3fs: %w", edge, d, ErrOutOfRange)
	}

	c.trim = t
	c.trimTouched = true
	c.dirty = true
	return nil
}

// ApplyTrim emits the current trim range as a trim request
func (c *Controller) ApplyTrim() (Range, error) {
	if !c.clock.Known() {
		return Range{}, fmt.Errorf("apply trim: duration unknown: %w", ErrOutOfRange)
	}
	if c.trim.Width() < c.opts.MinWidth {
		return Range{}, fmt.Errorf("apply trim %s: %w", c.trim, ErrInvalidInput)
	}
	c.emit(Request{Kind: RequestTrim, Range: c.trim})
	return c.trim, nil
}

// CanSplitAtCurrentTime reports whether the playhead is strictly inside the asset
func (c *Controller) CanSplitAtCurrentTime() bool {
	return c.splittable(c.clock.CurrentTime())
}

// CanSplitAtMidpoint reports whether a midpoint split is possible
func (c *Controller) CanSplitAtMidpoint() bool {
	return c.splittable(c.clock.Duration() / 2)
}

// SplitAtCurrentTime emits a split at the playhead
func (c *Controller) SplitAtCurrentTime() (float64, error) {
	return c.split("current time", c.clock.CurrentTime())
}

// SplitAtMidpoint emits a split halfway through the asset
func (c *Controller) SplitAtMidpoint() (float64, error) {
	return c.split("midpoint", c.clock.Duration()/2)
}

func (c *Controller) split(what string, t float64) (float64, error) {
	if !c.splittable(t) {
		return 0, fmt.Errorf("split at %s %.3fs of %.3fs: %w", what, t, c.clock.Duration(), ErrOutOfRange)
	}
	c.emit(Request{Kind: RequestSplit, At: t})
	return t, nil
}

func (c *Controller) splittable(t float64) bool {
	d := c.clock.Duration()
	return d > 0 && t > 0 && t < d
}

// OnProcessingFailed records a failed request. Nothing is retried; the
// selection goes back to Idle and the trim range stays as it was.
func (c *Controller) OnProcessingFailed(reason string) {
	defer c.flush()

	c.lastFailure = reason
	c.selection.Clear()
	c.dirty = true

	c.logger.Warn().
		Str("asset", c.asset).
		Str("reason", reason).
		Msg("processing failed")
}

// Asset returns the reference passed to LoadAsset
func (c *Controller) Asset() string { return c.asset }

// Trim returns the current trim range
func (c *Controller) Trim() Range { return c.trim }

// Mode returns the selection state
func (c *Controller) Mode() Mode { return c.selection.Mode() }

// CurrentTime returns the playhead
func (c *Controller) CurrentTime() float64 { return c.clock.CurrentTime() }

// Duration returns the asset duration, 0 when unknown
func (c *Controller) Duration() float64 { return c.clock.Duration() }

// DeleteRange returns the ready delete range or nil
func (c *Controller) DeleteRange() *Range { return c.selection.DeleteRange() }

// ExtractRange returns the ready extract range or nil
func (c *Controller) ExtractRange() *Range { return c.selection.ExtractRange() }

func (c *Controller) checkTime(op string, t float64) error {
	if !finite(t) {
		return fmt.Errorf("%s at %v: %w", op, t, ErrInvalidInput)
	}
	if !c.clock.Known() {
		return fmt.Errorf("%s: duration unknown: %w", op, ErrOutOfRange)
	}
	return nil
}

func (c *Controller) emit(r Request) {
	r.Asset = c.asset

	c.logger.Info().
		Str("asset", r.Asset).
		Str("kind", string(r.Kind)).
		Float64("start", r.Range.Start).
		Float64("end", r.Range.End).
		Float64("at", r.At).
		Msg("request emitted")

	if c.opts.Sink != nil {
		c.opts.Sink.Submit(r)
	}
}

func (c *Controller) flush() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if len(c.observers) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.observers {
		fn(snap)
	}
}
