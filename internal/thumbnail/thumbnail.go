package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/pkg/util"
)

// DefaultWidth is used when Generate is asked for width 0
const DefaultWidth = 320

// FrameGrabber writes a single video frame to a JPEG file
type FrameGrabber interface {
	ExtractFrame(ctx context.Context, input string, timestamp time.Duration, output string) error
}

// Generator renders scaled JPEG thumbnails of video frames
type Generator struct {
	logger  zerolog.Logger
	grabber FrameGrabber
	tempDir string
}

// New creates a thumbnail generator that stages frames in tempDir
func New(logger zerolog.Logger, grabber FrameGrabber, tempDir string) *Generator {
	return &Generator{
		logger:  logger.With().Str("component", "thumbnail").Logger(),
		grabber: grabber,
		tempDir: tempDir,
	}
}

// Generate grabs the frame at `at` seconds and returns it as a JPEG scaled to width
func (g *Generator) Generate(ctx context.Context, path string, at float64, width uint) ([]byte, error) {
	if width == 0 {
		width = DefaultWidth
	}
	if at < 0 {
		at = 0
	}

	frame, err := util.TempPath(g.tempDir, "clipdeck-frame-", ".jpg")
	if err != nil {
		return nil, fmt.Errorf("allocate frame file: %w", err)
	}
	defer util.CleanupFiles(frame)

	if err := g.grabber.ExtractFrame(ctx, path, util.Seconds(at), frame); err != nil {
		return nil, err
	}

	f, err := os.Open(frame)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	out, err := Scale(img, width)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().
		Str("path", path).
		Float64("at", at).
		Uint("width", width).
		Int("bytes", len(out)).
		Msg("thumbnail generated")
	return out, nil
}

// Scale resizes img to width, keeping the aspect ratio, and encodes it as JPEG
func Scale(img image.Image, width uint) ([]byte, error) {
	if uint(img.Bounds().Dx()) > width {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
