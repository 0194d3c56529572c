package processor

import (
	"math"
	"time"

	"github.com/keagan/clipdeck/internal/ffmpeg"
	"github.com/keagan/clipdeck/pkg/util"
)

// ProgressFunc receives the fraction of an edit written so far, in [0, 1]
type ProgressFunc func(fraction float64)

// expectedOutput is how much media ffmpeg will write for req
func expectedOutput(req Request, source time.Duration) time.Duration {
	switch req.Kind {
	case KindTrim, KindExtractRange:
		return util.Seconds(req.End - req.Start)
	case KindDeleteRange:
		return source - util.Seconds(req.End-req.Start)
	case KindSpeed:
		return time.Duration(float64(source) / req.Factor)
	default:
		// split writes both halves back to back
		return source
	}
}

// tracker turns ffmpeg progress blocks into monotonic fractions of total
func tracker(total time.Duration, fn ProgressFunc) ffmpeg.ProgressFunc {
	if fn == nil || total <= 0 {
		return nil
	}
	last := -1.0
	return func(p *ffmpeg.Progress) {
		f := math.Min(1, math.Max(0, p.Elapsed().Seconds()/total.Seconds()))
		if f <= last {
			return
		}
		last = f
		fn(f)
	}
}
