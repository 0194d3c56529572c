package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/keagan/clipdeck/pkg/util"
)

// ProbeVideo extracts metadata from a video file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}
	info.FilePath = filePath

	e.logger.Debug().
		Str("path", filePath).
		Dur("duration", info.Duration).
		Bool("audio", info.HasAudio).
		Msg("probed video")

	return info, nil
}

// Duration returns the container duration in seconds
func (e *Executor) Duration(ctx context.Context, filePath string) (float64, error) {
	info, err := e.ProbeVideo(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return info.Duration.Seconds(), nil
}

func parseProbeOutput(output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}
	if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		info.Size = size
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
			// webm from browsers often has no container duration
			if info.Duration == 0 {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = time.Duration(dur * float64(time.Second))
				}
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	if !info.HasVideo && !info.HasAudio {
		return nil, fmt.Errorf("no audio or video streams found")
	}
	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}
