package processor

import (
	"context"
	"errors"
	"fmt"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// ErrClosed is returned by Submit after Close
var ErrClosed = errors.New("processor closed")

type jobEntry struct {
	job  Job
	done chan struct{}
}

// Submit queues req for background processing and returns the pending job.
// The job runs until done or until ctx is cancelled.
func (p *Processor) Submit(ctx context.Context, req Request) *Job {
	entry := &jobEntry{
		job: Job{
			ID:        newJobID(),
			Request:   req,
			Status:    StatusPending,
			CreatedAt: p.now().UTC(),
		},
		done: make(chan struct{}),
	}

	p.mu.Lock()
	p.pruneLocked()
	p.jobs[entry.job.ID] = entry
	closed := p.closed
	if !closed {
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if closed {
		p.finish(entry, nil, ErrClosed)
		return p.snapshot(entry)
	}

	p.logger.Debug().Str("job", entry.job.ID).Str("kind", string(req.Kind)).Msg("job submitted")

	go func() {
		defer p.wg.Done()
		p.setStatus(entry, StatusRunning)
		res, err := p.RunWithProgress(ctx, req, func(f float64) {
			p.mu.Lock()
			entry.job.Progress = f
			p.mu.Unlock()
		})
		p.finish(entry, res, err)
	}()

	return p.snapshot(entry)
}

// Job returns a copy of the job's current state
func (p *Processor) Job(id string) (*Job, error) {
	p.mu.RLock()
	entry, ok := p.jobs[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return p.snapshot(entry), nil
}

// Wait blocks until the job finishes or ctx ends
func (p *Processor) Wait(ctx context.Context, id string) (*Job, error) {
	p.mu.RLock()
	entry, ok := p.jobs[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	select {
	case <-entry.done:
		return p.snapshot(entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting jobs and waits for those in flight
func (p *Processor) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Processor) setStatus(entry *jobEntry, status Status) {
	p.mu.Lock()
	entry.job.Status = status
	p.mu.Unlock()
}

func (p *Processor) finish(entry *jobEntry, res *Result, err error) {
	now := p.now().UTC()

	p.mu.Lock()
	entry.job.FinishedAt = &now
	if err != nil {
		entry.job.Status = StatusFailed
		entry.job.Error = err.Error()
	} else {
		entry.job.Status = StatusDone
		entry.job.Progress = 1
		entry.job.Result = res
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn().Err(err).Str("job", entry.job.ID).Msg("job failed")
	} else {
		p.logger.Info().Str("job", entry.job.ID).Msg("job done")
	}
	close(entry.done)
}

func (p *Processor) snapshot(entry *jobEntry) *Job {
	p.mu.RLock()
	defer p.mu.RUnlock()
	j := entry.job
	return &j
}

// pruneLocked drops jobs that finished more than JobTTL ago. p.mu must be held.
func (p *Processor) pruneLocked() {
	cutoff := p.now().Add(-p.opts.JobTTL)
	for id, entry := range p.jobs {
		if at := entry.job.FinishedAt; at != nil && at.Before(cutoff) {
			delete(p.jobs, id)
		}
	}
}
