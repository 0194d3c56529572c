package processor

import (
	"context"

	"github.com/keagan/clipdeck/internal/timeline"
)

// FromTimeline converts a controller request into a processor request. The
// controller's asset reference is the clip ID.
func FromTimeline(r timeline.Request) Request {
	req := Request{
		Kind:   Kind(r.Kind),
		ClipID: r.Asset,
	}
	switch r.Kind {
	case timeline.RequestSplit:
		req.At = r.At
	default:
		req.Start = r.Range.Start
		req.End = r.Range.End
	}
	return req
}

// Sink returns a timeline.Sink that submits every emitted request as a job.
// onJob, when set, receives the pending job; it runs on the controller's
// goroutine and must not call back into the controller.
func (p *Processor) Sink(ctx context.Context, onJob func(*Job)) timeline.Sink {
	return timeline.SinkFunc(func(r timeline.Request) {
		job := p.Submit(ctx, FromTimeline(r))
		if onJob != nil {
			onJob(job)
		}
	})
}
