package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format
func FormatDuration(d time.Duration) string {
	return FormatSeconds(d.Seconds())
}

// FormatSeconds renders seconds as HH:MM:SS.mmm
func FormatSeconds(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// Seconds converts float seconds to a time.Duration
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ParseTimestamp parses "SS.mmm", "MM:SS.mmm" or "HH:MM:SS.mmm" into seconds
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		// every field but the last is a whole number below 60, except the leading one
		if i > 0 && i < len(parts)-1 && v >= 60 {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
