package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// PlaybackRate rescales video timestamps so the stream plays factor times faster
func (fb *FilterBuilder) PlaybackRate(factor float64) *FilterBuilder {
	if factor <= 0 || factor == 1 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("setpts=PTS/%s", formatFloat(factor)))
	return fb
}

// Tempo changes audio speed without changing pitch. atempo only accepts
// 0.5..2.0 per instance, so larger factors become a chain.
func (fb *FilterBuilder) Tempo(factor float64) *FilterBuilder {
	if factor <= 0 || factor == 1 {
		return fb
	}
	for factor > 2.0 {
		fb.filters = append(fb.filters, "atempo=2")
		factor /= 2.0
	}
	for factor < 0.5 {
		fb.filters = append(fb.filters, "atempo=0.5")
		factor /= 0.5
	}
	if factor != 1 {
		fb.filters = append(fb.filters, "atempo="+formatFloat(factor))
	}
	return fb
}

// DropVideoBetween removes video frames inside [start, end] and closes the gap
func (fb *FilterBuilder) DropVideoBetween(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("select='not(between(t,%.3f,%.3f))'", start, end),
		"setpts=N/FRAME_RATE/TB",
	)
	return fb
}

// DropAudioBetween removes audio samples inside [start, end] and closes the gap
func (fb *FilterBuilder) DropAudioBetween(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters,
		fmt.Sprintf("aselect='not(between(t,%.3f,%.3f))'", start, end),
		"asetpts=N/SR/TB",
	)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
