package timeline

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	requests []Request
}

func (r *recordingSink) Submit(req Request) {
	r.requests = append(r.requests, req)
}

func newTestController(t *testing.T) (*Controller, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	c := New(zerolog.Nop(), Options{Sink: sink})
	return c, sink
}

func loaded(t *testing.T, d float64) (*Controller, *recordingSink) {
	t.Helper()
	c, sink := newTestController(t)
	c.LoadAsset("clip-1", math.NaN())
	require.NoError(t, c.OnDurationReported(d))
	return c, sink
}

func TestScenarioDefaultTrimFromDuration(t *testing.T) {
	c, _ := newTestController(t)
	c.LoadAsset("clip-1", math.NaN())
	assert.Equal(t, Range{Start: 0, End: 0}, c.Trim())

	require.NoError(t, c.OnDurationReported(12.0))
	assert.Equal(t, 0.0, c.Trim().Start)
	assert.Equal(t, 12.0, c.Trim().End)
}

func TestScenarioSetTrimNormalizes(t *testing.T) {
	c, _ := loaded(t, 20)

	require.NoError(t, c.SetTrim(5, 3))
	assert.Equal(t, Range{Start: 3, End: 5}, c.Trim())
}

func TestScenarioIdleClickSeeks(t *testing.T) {
	c, _ := loaded(t, 20)

	require.NoError(t, c.OnTimelineClick(10))
	assert.Equal(t, 10.0, c.CurrentTime())
	assert.Equal(t, Idle, c.Mode())
}

func TestScenarioReversedDeleteClicks(t *testing.T) {
	c, _ := loaded(t, 20)

	require.NoError(t, c.BeginDeleteSelection())
	require.NoError(t, c.OnTimelineClick(4))
	require.NoError(t, c.OnTimelineClick(2))

	assert.Equal(t, DeleteReady, c.Mode())
	require.NotNil(t, c.DeleteRange())
	assert.Equal(t, Range{Start: 2, End: 4}, *c.DeleteRange())
	assert.Equal(t, 0.0, c.CurrentTime(), "clicks while armed do not seek")
}

func TestScenarioExtractCancelsDelete(t *testing.T) {
	c, _ := loaded(t, 20)

	require.NoError(t, c.BeginDeleteSelection())
	require.NoError(t, c.OnTimelineClick(4))
	require.NoError(t, c.BeginExtractSelection())

	assert.Equal(t, SelectingExtract, c.Mode())
	snap := c.Snapshot()
	assert.Nil(t, snap.Anchor)
	assert.Nil(t, snap.DeleteRange)
	assert.Nil(t, snap.ExtractRange)
}

func TestScenarioShrinkingDurationDropsSelection(t *testing.T) {
	c, sink := loaded(t, 20)

	require.NoError(t, c.BeginDeleteSelection())
	require.NoError(t, c.OnTimelineClick(2))
	require.NoError(t, c.OnTimelineClick(4))
	require.Equal(t, DeleteReady, c.Mode())

	require.NoError(t, c.OnDurationReported(3))
	assert.Equal(t, Idle, c.Mode())
	assert.Nil(t, c.DeleteRange())

	_, err := c.CommitDeleteRange()
	require.ErrorIs(t, err, ErrIllegalCommit)
	assert.Empty(t, sink.requests)
}

func TestCommitEmitsRequest(t *testing.T) {
	c, sink := loaded(t, 20)

	require.NoError(t, c.BeginExtractSelection())
	require.NoError(t, c.OnTimelineClick(6))
	require.NoError(t, c.OnTimelineClick(11))

	_, err := c.CommitDeleteRange()
	require.ErrorIs(t, err, ErrIllegalCommit)
	assert.Equal(t, ExtractReady, c.Mode())

	r, err := c.CommitExtractRange()
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 6, End: 11}, r)
	assert.Equal(t, Idle, c.Mode())

	require.Len(t, sink.requests, 1)
	assert.Equal(t, Request{Kind: RequestExtractRange, Asset: "clip-1", Range: r}, sink.requests[0])
}

func TestCancelSelection(t *testing.T) {
	c, sink := loaded(t, 20)

	require.NoError(t, c.BeginDeleteSelection())
	require.NoError(t, c.OnTimelineClick(1))
	require.NoError(t, c.OnTimelineClick(3))
	c.CancelSelection()

	assert.Equal(t, Idle, c.Mode())
	assert.Nil(t, c.DeleteRange())
	assert.Empty(t, sink.requests)
}

func TestRejectionsLeaveStateUnchanged(t *testing.T) {
	c, _ := loaded(t, 20)
	require.NoError(t, c.SetTrim(2, 8))
	require.NoError(t, c.Seek(5))
	before := c.Snapshot()

	assert.ErrorIs(t, c.SetTrim(math.NaN(), 4), ErrInvalidInput)
	assert.ErrorIs(t, c.SetTrim(4, 4.05), ErrInvalidInput)
	assert.ErrorIs(t, c.SetTrim(25, 40), ErrOutOfRange)
	assert.ErrorIs(t, c.Seek(math.Inf(1)), ErrInvalidInput)
	assert.ErrorIs(t, c.OnTimelineClick(math.NaN()), ErrInvalidInput)
	assert.ErrorIs(t, c.OnDurationReported(-1), ErrInvalidInput)
	assert.ErrorIs(t, c.OnDurationReported(math.NaN()), ErrInvalidInput)
	assert.ErrorIs(t, c.AdjustTrim(EdgeEnd, math.NaN()), ErrInvalidInput)

	assert.Equal(t, before, c.Snapshot())
}

func TestOperationsBeforeDurationKnown(t *testing.T) {
	c, sink := newTestController(t)
	c.LoadAsset("clip-1", 0)

	assert.ErrorIs(t, c.Seek(3), ErrOutOfRange)
	assert.ErrorIs(t, c.OnTimelineClick(3), ErrOutOfRange)
	assert.ErrorIs(t, c.BeginDeleteSelection(), ErrOutOfRange)
	assert.ErrorIs(t, c.SetTrim(1, 2), ErrOutOfRange)
	_, err := c.SplitAtMidpoint()
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = c.ApplyTrim()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, sink.requests)
}

func TestLoadAssetWithHint(t *testing.T) {
	c, _ := newTestController(t)
	c.LoadAsset("clip-1", 45)
	assert.Equal(t, 45.0, c.Duration())
	assert.Equal(t, Range{Start: 0, End: 30}, c.Trim())

	// untouched trim follows the corrected duration
	require.NoError(t, c.OnDurationReported(44.5))
	assert.Equal(t, Range{Start: 0, End: 30}, c.Trim())
	require.NoError(t, c.OnDurationReported(8))
	assert.Equal(t, Range{Start: 0, End: 8}, c.Trim())
}

func TestLoadAssetResets(t *testing.T) {
	c, _ := loaded(t, 20)
	require.NoError(t, c.SetTrim(4, 9))
	require.NoError(t, c.Seek(7))
	require.NoError(t, c.BeginExtractSelection())
	require.NoError(t, c.OnTimelineClick(2))
	c.OnProcessingFailed("encoder exploded")

	c.LoadAsset("clip-2", math.NaN())
	snap := c.Snapshot()
	assert.Equal(t, "clip-2", snap.Asset)
	assert.Equal(t, 0.0, snap.CurrentTime)
	assert.Equal(t, 0.0, snap.Duration)
	assert.Equal(t, Range{}, snap.Trim)
	assert.Equal(t, Idle, snap.Mode)
	assert.Empty(t, snap.LastFailure)
}

func TestDurationReportClampsPlayhead(t *testing.T) {
	c, _ := loaded(t, 20)
	require.NoError(t, c.Seek(15))
	require.NoError(t, c.OnDurationReported(9))
	assert.Equal(t, 9.0, c.CurrentTime())
}

func TestTouchedTrimClamp(t *testing.T) {
	c, _ := loaded(t, 60)
	require.NoError(t, c.SetTrim(25, 28))

	require.NoError(t, c.OnDurationReported(10))
	tr := c.Trim()
	assert.Equal(t, 10.0, tr.End)
	assert.LessOrEqual(t, tr.Start, tr.End)
	assert.InDelta(t, 9.9, tr.Start, 1e-9)

	// a longer report keeps the user's trim
	require.NoError(t, c.OnDurationReported(50))
	assert.Equal(t, tr, c.Trim())
}

func TestTrimClampProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		c, _ := loaded(t, 120)
		a, b := rng.Float64()*120, rng.Float64()*120
		_ = c.SetTrim(a, b)
		before := c.Trim()

		d := rng.Float64()*130 + 0.01
		require.NoError(t, c.OnDurationReported(d))
		after := c.Trim()
		if d < before.End {
			require.Equal(t, math.Min(d, DefaultTrimWindow), after.End)
		}
		require.LessOrEqual(t, after.Start, after.End)
		require.GreaterOrEqual(t, after.Start, 0.0)
	}
}

func TestAdjustTrim(t *testing.T) {
	c, _ := loaded(t, 20)
	require.NoError(t, c.SetTrim(5, 10))

	require.NoError(t, c.AdjustTrim(EdgeStart, -2))
	assert.Equal(t, Range{Start: 3, End: 10}, c.Trim())

	require.NoError(t, c.AdjustTrim(EdgeStart, 100))
	assert.InDelta(t, 9.9, c.Trim().Start, 1e-9)

	require.NoError(t, c.AdjustTrim(EdgeEnd, 100))
	assert.Equal(t, 20.0, c.Trim().End)

	require.NoError(t, c.AdjustTrim(EdgeStart, -100))
	assert.Equal(t, 0.0, c.Trim().Start)

	require.NoError(t, c.AdjustTrim(EdgeEnd, -100))
	assert.InDelta(t, 0.1, c.Trim().End, 1e-9)
}

func TestSplit(t *testing.T) {
	c, sink := loaded(t, 20)

	assert.False(t, c.CanSplitAtCurrentTime(), "playhead at 0")
	_, err := c.SplitAtCurrentTime()
	require.ErrorIs(t, err, ErrOutOfRange)

	require.NoError(t, c.Seek(20))
	assert.False(t, c.CanSplitAtCurrentTime(), "playhead at the end")

	require.NoError(t, c.Seek(7.5))
	at, err := c.SplitAtCurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 7.5, at)

	at, err = c.SplitAtMidpoint()
	require.NoError(t, err)
	assert.Equal(t, 10.0, at)

	require.Len(t, sink.requests, 2)
	assert.Equal(t, RequestSplit, sink.requests[0].Kind)
	assert.Equal(t, 7.5, sink.requests[0].At)
	assert.Equal(t, 10.0, sink.requests[1].At)
}

func TestApplyTrim(t *testing.T) {
	c, sink := loaded(t, 20)
	require.NoError(t, c.SetTrim(1, 6))

	r, err := c.ApplyTrim()
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 1, End: 6}, r)
	require.Len(t, sink.requests, 1)
	assert.Equal(t, RequestTrim, sink.requests[0].Kind)
	assert.Equal(t, "clip-1", sink.requests[0].Asset)
}

func TestProcessingFailure(t *testing.T) {
	c, _ := loaded(t, 20)
	require.NoError(t, c.SetTrim(1, 6))
	require.NoError(t, c.BeginDeleteSelection())
	require.NoError(t, c.OnTimelineClick(2))

	c.OnProcessingFailed("ffmpeg exited with status 1")
	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.Mode)
	assert.Equal(t, Range{Start: 1, End: 6}, snap.Trim)
	assert.Equal(t, "ffmpeg exited with status 1", snap.LastFailure)
}

func TestSnapshotPercentages(t *testing.T) {
	c, _ := loaded(t, 40)
	require.NoError(t, c.SetTrim(10, 20))
	require.NoError(t, c.Seek(15))
	require.NoError(t, c.BeginExtractSelection())
	require.NoError(t, c.OnTimelineClick(30))

	snap := c.Snapshot()
	assert.Equal(t, 25.0, snap.TrimStartPercent)
	assert.Equal(t, 50.0, snap.TrimEndPercent)
	assert.Equal(t, 37.5, snap.CurrentTimePercent)
	assert.True(t, snap.IsCurrentTimeInTrimRange)
	assert.Equal(t, 75.0, snap.AnchorPercent)
	assert.Equal(t, [2]float64{0, 0}, snap.ExtractRangePercent)

	require.NoError(t, c.OnTimelineClick(38))
	snap = c.Snapshot()
	assert.Equal(t, [2]float64{75, 95}, snap.ExtractRangePercent)
	assert.Equal(t, [2]float64{0, 0}, snap.DeleteRangePercent)
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestController(t)
	var got []Snapshot
	unsubscribe := c.Subscribe(func(s Snapshot) { got = append(got, s) })

	c.LoadAsset("clip-1", math.NaN())
	require.NoError(t, c.OnDurationReported(20))
	require.NoError(t, c.Seek(4))
	_ = c.Seek(math.NaN())
	require.Len(t, got, 3, "rejected seek publishes nothing")
	assert.Equal(t, 4.0, got[2].CurrentTime)
	assert.Equal(t, 20.0, got[1].Trim.End, "published after the trim was updated")

	unsubscribe()
	require.NoError(t, c.Seek(5))
	assert.Len(t, got, 3)
}

// Random operation sequences must never leave both selection kinds defined
// or commit a range narrower than the minimum width.
func TestSelectionStaysConsistentUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	c, sink := loaded(t, 30)

	for i := 0; i < 5000; i++ {
		switch rng.Intn(9) {
		case 0:
			_ = c.BeginDeleteSelection()
		case 1:
			_ = c.BeginExtractSelection()
		case 2, 3:
			_ = c.OnTimelineClick(rng.Float64()*34 - 2)
		case 4:
			_, _ = c.CommitDeleteRange()
		case 5:
			_, _ = c.CommitExtractRange()
		case 6:
			c.CancelSelection()
		case 7:
			_ = c.OnDurationReported(rng.Float64()*30 + 0.5)
		case 8:
			_ = c.OnTimelineClick(c.CurrentTime() + rng.Float64()*0.15)
		}

		snap := c.Snapshot()
		switch snap.Mode {
		case SelectingDelete, DeleteReady:
			require.Nil(t, snap.ExtractRange)
		case SelectingExtract, ExtractReady:
			require.Nil(t, snap.DeleteRange)
		case Idle:
			require.Nil(t, snap.DeleteRange)
			require.Nil(t, snap.ExtractRange)
		}
		require.False(t, snap.DeleteRange != nil && snap.ExtractRange != nil)
	}

	for _, req := range sink.requests {
		require.Greater(t, req.Range.Width(), MinRangeWidth, "committed %s", req.Range)
	}
}

func TestLockedSerializesCallers(t *testing.T) {
	c, _ := loaded(t, 100)
	l := NewLocked(c)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = l.Do(func(c *Controller) error {
					if (i+j)%2 == 0 {
						if err := c.BeginDeleteSelection(); err != nil {
							return err
						}
					} else if err := c.BeginExtractSelection(); err != nil {
						return err
					}
					if err := c.OnTimelineClick(float64(j % 50)); err != nil {
						return err
					}
					return c.OnTimelineClick(float64(j%50) + 10)
				})
			}
		}(i)
	}
	wg.Wait()

	snap := l.Snapshot()
	assert.False(t, snap.DeleteRange != nil && snap.ExtractRange != nil)
	assert.Contains(t, []Mode{DeleteReady, ExtractReady}, snap.Mode)
}
