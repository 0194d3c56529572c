package processor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/pkg/util"
)

// Import registers a local video file in the catalog in place, without
// copying it into the data dir
func (p *Processor) Import(ctx context.Context, path string) (*clips.Clip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if !util.FileExists(abs) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidRequest, path)
	}

	info, err := p.editor.ProbeVideo(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, path, err)
	}
	if !info.HasVideo {
		return nil, fmt.Errorf("%w: %s has no video stream", ErrInvalidRequest, path)
	}

	clip := &clips.Clip{
		Name:     filepath.Base(abs),
		Path:     abs,
		Duration: info.Duration.Seconds(),
		Size:     info.Size,
	}
	if err := p.store.Add(ctx, clip); err != nil {
		return nil, err
	}

	p.logger.Info().Str("clip", clip.ID).Str("path", abs).Float64("duration", clip.Duration).Msg("clip imported")
	return clip, nil
}
