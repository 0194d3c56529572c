package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasVideo   bool
	HasAudio   bool
	AudioCodec string
	Size       int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame         int
	FPS           float64
	Bitrate       string
	Time          string
	OutTimeMicros int64
	Speed         string
}

// Elapsed returns how much output time has been written so far
func (p *Progress) Elapsed() time.Duration {
	return time.Duration(p.OutTimeMicros) * time.Microsecond
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// Speed factors accepted by ChangeSpeed
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)
