package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/clipdeck/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	CopyCodec    bool // If true, use -c copy for fast, keyframe-aligned extraction
	ProgressFunc ProgressFunc
}

// ExtractClip cuts [Start, End) out of input into a new file
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	args, err := e.clipArgs(input, opts)
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("end", opts.End).
		Bool("copy_codec", opts.CopyCodec).
		Msg("extracting clip")

	if err := e.Run(ctx, e.runOptions(args, opts.ProgressFunc, "clip extraction")); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}

// Trim keeps only [Start, End) of input, always re-encoding for frame accuracy
func (e *Executor) Trim(ctx context.Context, input string, opts ClipOptions) error {
	opts.CopyCodec = false
	return e.ExtractClip(ctx, input, opts)
}

// ExtractRange copies [Start, End) of input into Output, leaving input
// untouched. CopyCodec trades frame accuracy for a keyframe-aligned stream copy.
func (e *Executor) ExtractRange(ctx context.Context, input string, opts ClipOptions) error {
	return e.ExtractClip(ctx, input, opts)
}

// SplitOptions defines a two-way split
type SplitOptions struct {
	At       time.Duration
	Duration time.Duration
	First    string
	Second   string
	// ProgressFunc sees both halves as one output: the second half reports
	// its elapsed time offset by At.
	ProgressFunc ProgressFunc
}

// Split writes [0, At) to First and [At, Duration) to Second
func (e *Executor) Split(ctx context.Context, input string, opts SplitOptions) error {
	if opts.At <= 0 || opts.At >= opts.Duration {
		return fmt.Errorf("split point %v outside (0, %v)", opts.At, opts.Duration)
	}
	if opts.First == "" || opts.Second == "" {
		return fmt.Errorf("both output paths are required")
	}

	e.logger.Info().
		Str("input", input).
		Dur("at", opts.At).
		Msg("splitting clip")

	first := ClipOptions{Start: 0, End: opts.At, Output: opts.First, ProgressFunc: opts.ProgressFunc}
	if err := e.ExtractClip(ctx, input, first); err != nil {
		return fmt.Errorf("split first half: %w", err)
	}
	second := ClipOptions{Start: opts.At, End: opts.Duration, Output: opts.Second, ProgressFunc: offsetProgress(opts.ProgressFunc, opts.At)}
	if err := e.ExtractClip(ctx, input, second); err != nil {
		return fmt.Errorf("split second half: %w", err)
	}
	return nil
}

// offsetProgress shifts reported output time by offset
func offsetProgress(fn ProgressFunc, offset time.Duration) ProgressFunc {
	if fn == nil {
		return nil
	}
	return func(p *Progress) {
		shifted := *p
		shifted.OutTimeMicros += offset.Microseconds()
		fn(&shifted)
	}
}

// RangeOptions describes an edit over [Start, End)
type RangeOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	HasAudio     bool
	ProgressFunc ProgressFunc
}

// DeleteRange writes input minus [Start, End) to Output
func (e *Executor) DeleteRange(ctx context.Context, input string, opts RangeOptions) error {
	args, err := e.deleteRangeArgs(input, opts)
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("end", opts.End).
		Msg("deleting range")

	if err := e.Run(ctx, e.runOptions(args, opts.ProgressFunc, "delete range")); err != nil {
		return fmt.Errorf("delete range failed: %w", err)
	}
	return nil
}

// SpeedOptions defines a playback speed change
type SpeedOptions struct {
	Factor       float64
	Output       string
	HasAudio     bool
	ProgressFunc ProgressFunc
}

// ChangeSpeed re-times input by Factor (2 = twice as fast)
func (e *Executor) ChangeSpeed(ctx context.Context, input string, opts SpeedOptions) error {
	args, err := e.speedArgs(input, opts)
	if err != nil {
		return err
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("factor", opts.Factor).
		Msg("changing speed")

	if err := e.Run(ctx, e.runOptions(args, opts.ProgressFunc, "change speed")); err != nil {
		return fmt.Errorf("speed change failed: %w", err)
	}
	return nil
}

func (e *Executor) clipArgs(input string, opts ClipOptions) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	duration := opts.End - opts.Start
	if opts.Start < 0 || duration <= 0 {
		return nil, fmt.Errorf("invalid clip duration: end must be after start")
	}

	args := []string{
		"-i", input,
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(duration),
	}
	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, e.encodeArgs()...)
	}
	return append(args, opts.Output), nil
}

func (e *Executor) deleteRangeArgs(input string, opts RangeOptions) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Start < 0 || opts.End <= opts.Start {
		return nil, fmt.Errorf("invalid range: end must be after start")
	}

	start, end := opts.Start.Seconds(), opts.End.Seconds()
	args := []string{
		"-i", input,
		"-vf", NewFilterBuilder().DropVideoBetween(start, end).Build(),
	}
	if opts.HasAudio {
		args = append(args, "-af", NewFilterBuilder().DropAudioBetween(start, end).Build())
	}
	args = append(args, e.encodeArgs()...)
	return append(args, opts.Output), nil
}

func (e *Executor) speedArgs(input string, opts SpeedOptions) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Factor < MinSpeed || opts.Factor > MaxSpeed {
		return nil, fmt.Errorf("speed factor %v outside [%v, %v]", opts.Factor, MinSpeed, MaxSpeed)
	}

	args := []string{"-i", input}
	if vf := NewFilterBuilder().PlaybackRate(opts.Factor).Build(); vf != "" {
		args = append(args, "-vf", vf)
	}
	if opts.HasAudio {
		if af := NewFilterBuilder().Tempo(opts.Factor).Build(); af != "" {
			args = append(args, "-af", af)
		}
	} else {
		args = append(args, "-an")
	}
	args = append(args, e.encodeArgs()...)
	return append(args, opts.Output), nil
}

func (e *Executor) encodeArgs() []string {
	return []string{
		"-c:v", DefaultVideoCodec,
		"-preset", e.preset,
		"-crf", fmt.Sprintf("%d", e.crf),
		"-c:a", DefaultAudioCodec,
		"-movflags", "+faststart",
	}
}

func (e *Executor) runOptions(args []string, progress ProgressFunc, op string) RunOptions {
	return RunOptions{
		Args:            args,
		ProgressHandler: progress,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg(op)
		},
	}
}
