package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/keagan/clipdeck/pkg/util"
)

// ExtractFrame writes the frame at timestamp to output as a JPEG
func (e *Executor) ExtractFrame(ctx context.Context, input string, timestamp time.Duration, output string) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if timestamp < 0 {
		timestamp = 0
	}

	args := []string{
		"-ss", util.FormatDuration(timestamp),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2", // high quality JPEG
		output,
	}

	if err := e.Run(ctx, e.runOptions(args, nil, "frame extraction")); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}
	return nil
}
