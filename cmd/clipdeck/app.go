package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/ffmpeg"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/internal/timeline"
)

// app bundles the collaborators every command needs
type app struct {
	ffmpeg *ffmpeg.Executor
	store  clips.Store
	proc   *processor.Processor
}

func newExecutor(logger zerolog.Logger, cfg *config.Config) (*ffmpeg.Executor, error) {
	exec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
		Preset:      cfg.FFmpeg.Preset,
		CRF:         cfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}
	return exec, nil
}

func newApp(logger zerolog.Logger, cfg *config.Config) (*app, error) {
	exec, err := newExecutor(logger, cfg)
	if err != nil {
		return nil, err
	}

	store, err := clips.Open(cfg)
	if err != nil {
		return nil, err
	}

	proc := processor.New(logger, exec, store, processor.Options{
		DataDir:     cfg.Storage.DataDir,
		TempDir:     cfg.Storage.TempDir,
		MinWidth:    cfg.Timeline.MinRangeWidth,
		CopyExtract: cfg.FFmpeg.CopyExtract,
	})

	return &app{ffmpeg: exec, store: store, proc: proc}, nil
}

func (a *app) Close() error {
	a.proc.Close()
	return a.store.Close()
}

func timelineOptions(cfg *config.Config) timeline.Options {
	return timeline.Options{
		MinWidth:   cfg.Timeline.MinRangeWidth,
		TrimWindow: cfg.Timeline.TrimWindow,
	}
}
