package processor

import (
	"context"
	"errors"
	"time"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/ffmpeg"
)

// Kind names an edit the processor can run
type Kind string

const (
	KindTrim         Kind = "trim"
	KindSpeed        Kind = "speed"
	KindSplit        Kind = "split"
	KindDeleteRange  Kind = "delete_range"
	KindExtractRange Kind = "extract_range"
)

var (
	// ErrUnsupported is returned for request kinds the processor does not know
	ErrUnsupported = errors.New("unsupported operation")

	// ErrInvalidRequest is returned when a request does not fit its source clip
	ErrInvalidRequest = errors.New("invalid request")
)

// Request describes one edit of an existing clip. Start/End are used by
// trim, delete_range and extract_range, At by split, Factor by speed. All
// times are seconds.
type Request struct {
	Kind   Kind    `json:"kind"`
	ClipID string  `json:"clip_id"`
	Start  float64 `json:"start,omitempty"`
	End    float64 `json:"end,omitempty"`
	At     float64 `json:"at,omitempty"`
	Factor float64 `json:"factor,omitempty"`
}

// Result holds the clips an edit produced
type Result struct {
	Source *clips.Clip   `json:"source"`
	Clips  []*clips.Clip `json:"clips"`
}

// Status is a job's lifecycle state
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job tracks an edit submitted for background processing
type Job struct {
	ID         string     `json:"id"`
	Request    Request    `json:"request"`
	Status     Status     `json:"status"`
	Progress   float64    `json:"progress"`
	Result     *Result    `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state
func (j *Job) Finished() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// MediaEditor is the subset of the ffmpeg executor the processor drives
type MediaEditor interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	Trim(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	ExtractRange(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	Split(ctx context.Context, input string, opts ffmpeg.SplitOptions) error
	DeleteRange(ctx context.Context, input string, opts ffmpeg.RangeOptions) error
	ChangeSpeed(ctx context.Context, input string, opts ffmpeg.SpeedOptions) error
}
