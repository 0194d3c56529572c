package processor

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/ffmpeg"
	"github.com/keagan/clipdeck/pkg/util"
)

// durationSlack absorbs container rounding between a probe and the engine
const durationSlack = 1e-3

// DefaultJobTTL is how long finished jobs stay queryable
const DefaultJobTTL = time.Hour

// Options configures where outputs go
type Options struct {
	DataDir  string
	TempDir  string
	MinWidth float64
	// CopyExtract stream-copies extracted ranges instead of re-encoding
	CopyExtract bool
	// JobTTL bounds how long finished jobs are kept (default DefaultJobTTL)
	JobTTL time.Duration
}

// Processor runs edits against clips in a store
type Processor struct {
	logger zerolog.Logger
	editor MediaEditor
	store  clips.Store
	opts   Options

	mu     sync.RWMutex
	jobs   map[string]*jobEntry
	closed bool
	wg     sync.WaitGroup
	now    func() time.Time
}

// New creates a processor writing finished clips into opts.DataDir
func New(logger zerolog.Logger, editor MediaEditor, store clips.Store, opts Options) *Processor {
	if opts.MinWidth <= 0 {
		opts.MinWidth = 0.1
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = DefaultJobTTL
	}
	return &Processor{
		logger: logger.With().Str("component", "processor").Logger(),
		editor: editor,
		store:  store,
		opts:   opts,
		jobs:   make(map[string]*jobEntry),
		now:    time.Now,
	}
}

// Validate checks req against the clip it edits
func (p *Processor) Validate(req Request, source *clips.Clip) error {
	d := source.Duration
	switch req.Kind {
	case KindTrim, KindExtractRange, KindDeleteRange:
		if !finite(req.Start) || !finite(req.End) {
			return fmt.Errorf("%w: range must be finite", ErrInvalidRequest)
		}
		if req.Start < 0 || req.End > d+durationSlack {
			return fmt.Errorf("%w: range [%.3f, %.3f] outside clip duration %.3f", ErrInvalidRequest, req.Start, req.End, d)
		}
		if req.End-req.Start < p.opts.MinWidth-1e-9 {
			return fmt.Errorf("%w: range [%.3f, %.3f] narrower than %.3fs", ErrInvalidRequest, req.Start, req.End, p.opts.MinWidth)
		}
		if req.Kind == KindDeleteRange && req.Start <= durationSlack && req.End >= d-durationSlack {
			return fmt.Errorf("%w: deleting the whole clip leaves nothing", ErrInvalidRequest)
		}
	case KindSplit:
		if !finite(req.At) || req.At <= 0 || req.At >= d {
			return fmt.Errorf("%w: split point %.3f outside (0, %.3f)", ErrInvalidRequest, req.At, d)
		}
	case KindSpeed:
		if !finite(req.Factor) || req.Factor < ffmpeg.MinSpeed || req.Factor > ffmpeg.MaxSpeed {
			return fmt.Errorf("%w: speed factor %v outside [%v, %v]", ErrInvalidRequest, req.Factor, ffmpeg.MinSpeed, ffmpeg.MaxSpeed)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, req.Kind)
	}
	return nil
}

// Run executes req synchronously and registers the clips it produced
func (p *Processor) Run(ctx context.Context, req Request) (*Result, error) {
	return p.RunWithProgress(ctx, req, nil)
}

// RunWithProgress is Run reporting how much of the output has been written.
// onProgress may be nil; it is called from the goroutine reading ffmpeg.
func (p *Processor) RunWithProgress(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	source, err := p.store.Get(ctx, req.ClipID)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(req, source); err != nil {
		return nil, err
	}

	info, err := p.editor.ProbeVideo(ctx, source.Path)
	if err != nil {
		return nil, fmt.Errorf("probe source: %w", err)
	}

	logger := p.logger.With().
		Str("clip", source.ID).
		Str("kind", string(req.Kind)).
		Logger()
	logger.Info().
		Float64("start", req.Start).
		Float64("end", req.End).
		Float64("at", req.At).
		Float64("factor", req.Factor).
		Msg("processing edit")

	outputs := 1
	if req.Kind == KindSplit {
		outputs = 2
	}
	temps := make([]string, 0, outputs)
	defer func() { util.CleanupFiles(temps...) }()
	for i := 0; i < outputs; i++ {
		path, err := util.TempPath(p.opts.TempDir, "clipdeck-", ".mp4")
		if err != nil {
			return nil, fmt.Errorf("allocate temp output: %w", err)
		}
		temps = append(temps, path)
	}

	progress := tracker(expectedOutput(req, info.Duration), onProgress)
	start, end := util.Seconds(req.Start), util.Seconds(req.End)
	switch req.Kind {
	case KindTrim:
		err = p.editor.Trim(ctx, source.Path, ffmpeg.ClipOptions{
			Start: start, End: end, Output: temps[0], ProgressFunc: progress,
		})
	case KindExtractRange:
		err = p.editor.ExtractRange(ctx, source.Path, ffmpeg.ClipOptions{
			Start: start, End: end, Output: temps[0], CopyCodec: p.opts.CopyExtract, ProgressFunc: progress,
		})
	case KindDeleteRange:
		err = p.editor.DeleteRange(ctx, source.Path, ffmpeg.RangeOptions{
			Start: start, End: end, Output: temps[0], HasAudio: info.HasAudio, ProgressFunc: progress,
		})
	case KindSpeed:
		err = p.editor.ChangeSpeed(ctx, source.Path, ffmpeg.SpeedOptions{
			Factor: req.Factor, Output: temps[0], HasAudio: info.HasAudio, ProgressFunc: progress,
		})
	case KindSplit:
		err = p.editor.Split(ctx, source.Path, ffmpeg.SplitOptions{
			At: util.Seconds(req.At), Duration: info.Duration, First: temps[0], Second: temps[1], ProgressFunc: progress,
		})
	}
	if err != nil {
		logger.Error().Err(err).Msg("edit failed")
		return nil, err
	}

	result := &Result{Source: source}
	for i, tmp := range temps {
		clip, err := p.register(ctx, source, req.Kind, tmp, outputName(source.Name, req.Kind, i, len(temps)))
		if err != nil {
			p.unregister(result.Clips)
			return nil, err
		}
		result.Clips = append(result.Clips, clip)
	}

	logger.Info().Int("outputs", len(result.Clips)).Msg("edit complete")
	return result, nil
}

// register moves a finished temp file into the data dir and records it
func (p *Processor) register(ctx context.Context, source *clips.Clip, kind Kind, tmp, name string) (*clips.Clip, error) {
	info, err := p.editor.ProbeVideo(ctx, tmp)
	if err != nil {
		return nil, fmt.Errorf("probe output: %w", err)
	}

	id := clips.NewID()
	dest := filepath.Join(p.opts.DataDir, id+".mp4")
	if err := util.MoveFile(tmp, dest); err != nil {
		return nil, fmt.Errorf("store output: %w", err)
	}

	clip := &clips.Clip{
		ID:        id,
		Name:      name,
		Path:      dest,
		Duration:  info.Duration.Seconds(),
		Size:      info.Size,
		ParentID:  source.ID,
		Operation: string(kind),
	}
	if err := p.store.Add(ctx, clip); err != nil {
		util.CleanupFiles(dest)
		return nil, fmt.Errorf("register output: %w", err)
	}
	return clip, nil
}

// unregister rolls back clips already added when a later output fails
func (p *Processor) unregister(added []*clips.Clip) {
	for _, clip := range added {
		if err := p.store.Remove(context.Background(), clip.ID); err != nil {
			p.logger.Warn().Err(err).Str("clip", clip.ID).Msg("rollback failed")
		}
		util.CleanupFiles(clip.Path)
	}
}

func outputName(sourceName string, kind Kind, index, total int) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	if base == "" {
		base = "clip"
	}
	suffix := strings.ReplaceAll(string(kind), "_", "-")
	if total > 1 {
		suffix = fmt.Sprintf("%s-%d", suffix, index+1)
	}
	return base + "-" + suffix + ".mp4"
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
