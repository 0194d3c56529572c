package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Options locates the binaries and sets encoder defaults
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Threads     int
	Preset      string
	CRF         int
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
	crf         int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (%s): %w", opts.FFmpegPath, err)
	}

	ffprobePath, err := exec.LookPath(opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found (%s): %w", opts.FFprobePath, err)
	}

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		preset:      preset,
		crf:         crf,
	}, nil
}

// ExecError is returned when ffmpeg exits unsuccessfully. Tail holds the
// last lines ffmpeg printed, which usually name the actual problem.
type ExecError struct {
	Args []string
	Tail []string
	Err  error
}

func (e *ExecError) Error() string {
	reason := e.Err.Error()
	if n := len(e.Tail); n > 0 {
		reason = e.Tail[n-1]
	}
	return fmt.Sprintf("ffmpeg execution failed: %s", reason)
}

func (e *ExecError) Unwrap() error { return e.Err }

// stderrTailLines bounds how much ffmpeg output an ExecError keeps
const stderrTailLines = 12

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	args := e.baseArgs()
	args = append(args, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := newLineTail(stderrTailLines)

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, func(line string) {
			tail.add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ctx.Err()
		}
		return &ExecError{Args: args, Tail: tail.lines(), Err: err}
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

func (e *Executor) baseArgs() []string {
	// threads must come before the inputs
	args := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", "error"}
	if e.threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.threads))
	}
	return append(args, "-progress", "pipe:2")
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			logHandler(line)
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			fmt.Sscanf(value, "%d", &progressData.Frame)
		case "fps":
			fmt.Sscanf(value, "%f", &progressData.FPS)
		case "bitrate":
			progressData.Bitrate = value
		case "out_time":
			progressData.Time = value
		case "out_time_us":
			fmt.Sscanf(value, "%d", &progressData.OutTimeMicros)
		case "speed":
			progressData.Speed = value
		case "progress":
			// End of progress block
			if progressHandler != nil {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		default:
			logHandler(line)
		}
	}
}

// lineTail keeps the last n lines written to it
type lineTail struct {
	mu  sync.Mutex
	buf []string
	n   int
}

func newLineTail(n int) *lineTail {
	return &lineTail{n: n}
}

func (t *lineTail) add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.n {
		t.buf = t.buf[len(t.buf)-t.n:]
	}
}

func (t *lineTail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
