package timeline

// Snapshot is the read-only view presentation layers render from.
// Every field is derived from controller state when the snapshot is taken.
type Snapshot struct {
	Asset       string  `json:"asset"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	Trim        Range   `json:"trim"`
	Mode        Mode    `json:"mode"`

	Anchor       *float64 `json:"anchor,omitempty"`
	DeleteRange  *Range   `json:"delete_range,omitempty"`
	ExtractRange *Range   `json:"extract_range,omitempty"`

	TrimStartPercent         float64    `json:"trim_start_percent"`
	TrimEndPercent           float64    `json:"trim_end_percent"`
	CurrentTimePercent       float64    `json:"current_time_percent"`
	IsCurrentTimeInTrimRange bool       `json:"in_trim_range"`
	DeleteRangePercent       [2]float64 `json:"delete_range_percent"`
	ExtractRangePercent      [2]float64 `json:"extract_range_percent"`
	AnchorPercent            float64    `json:"anchor_percent"`

	CanSplitAtCurrentTime bool   `json:"can_split_at_current_time"`
	CanSplitAtMidpoint    bool   `json:"can_split_at_midpoint"`
	LastFailure           string `json:"last_failure,omitempty"`
}

// Snapshot computes the current derived view
func (c *Controller) Snapshot() Snapshot {
	d := c.clock.Duration()
	now := c.clock.CurrentTime()

	s := Snapshot{
		Asset:                    c.asset,
		CurrentTime:              now,
		Duration:                 d,
		Trim:                     c.trim,
		Mode:                     c.selection.Mode(),
		DeleteRange:              c.selection.DeleteRange(),
		ExtractRange:             c.selection.ExtractRange(),
		TrimStartPercent:         percent(c.trim.Start, d),
		TrimEndPercent:           percent(c.trim.End, d),
		CurrentTimePercent:       percent(now, d),
		IsCurrentTimeInTrimRange: c.trim.Contains(now),
		CanSplitAtCurrentTime:    c.CanSplitAtCurrentTime(),
		CanSplitAtMidpoint:       c.CanSplitAtMidpoint(),
		LastFailure:              c.lastFailure,
	}

	if a, ok := c.selection.Anchor(); ok {
		s.Anchor = &a
		s.AnchorPercent = percent(a, d)
	}
	if r := s.DeleteRange; r != nil {
		s.DeleteRangePercent = [2]float64{percent(r.Start, d), percent(r.End, d)}
	}
	if r := s.ExtractRange; r != nil {
		s.ExtractRangePercent = [2]float64{percent(r.Start, d), percent(r.End, d)}
	}
	return s
}
