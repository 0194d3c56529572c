package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// generateTestVideo renders a short test pattern with a sine tone
func generateTestVideo(t *testing.T, seconds string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp4")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "sine=frequency=1000:duration="+seconds,
		"-f", "lavfi", "-i", "testsrc=duration="+seconds+":size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-shortest", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v\n%s", err, out)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	e, err := New(logger, Options{Threads: 2, Preset: "ultrafast"})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

// bareExecutor builds an executor without resolving binaries, for argument tests
func bareExecutor() *Executor {
	return &Executor{logger: zerolog.Nop(), preset: "veryfast", crf: 20}
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
	if e.crf != DefaultCRF {
		t.Errorf("expected default crf %d, got %d", DefaultCRF, e.crf)
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{FFmpegPath: "/nonexistent/ffmpeg-binary"})
	if err == nil {
		t.Fatal("expected error for missing ffmpeg")
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	if filter := NewFilterBuilder().PlaybackRate(1).Tempo(1).Build(); filter != "" {
		t.Errorf("expected empty string, got %q", filter)
	}
}

func TestFilterBuilderTempoChain(t *testing.T) {
	cases := map[float64]string{
		1.5:  "atempo=1.5",
		4:    "atempo=2,atempo=2",
		3:    "atempo=2,atempo=1.5",
		0.25: "atempo=0.5,atempo=0.5",
		0.5:  "atempo=0.5",
	}
	for factor, want := range cases {
		if got := NewFilterBuilder().Tempo(factor).Build(); got != want {
			t.Errorf("Tempo(%v) = %q, want %q", factor, got, want)
		}
	}
}

func TestFilterBuilderDropBetween(t *testing.T) {
	got := NewFilterBuilder().DropVideoBetween(2, 4.5).Build()
	want := "select='not(between(t,2.000,4.500))',setpts=N/FRAME_RATE/TB"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClipArgs(t *testing.T) {
	e := bareExecutor()
	args, err := e.clipArgs("in.mp4", ClipOptions{Start: 2 * time.Second, End: 5500 * time.Millisecond, Output: "out.mp4"})
	if err != nil {
		t.Fatalf("clipArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"-i in.mp4", "-ss 00:00:02.000", "-t 00:00:03.500", "-preset veryfast", "-crf 20"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output must be last, got %q", args[len(args)-1])
	}

	if _, err := e.clipArgs("in.mp4", ClipOptions{Start: 5 * time.Second, End: 2 * time.Second, Output: "o.mp4"}); err == nil {
		t.Error("reversed range should be rejected")
	}
	if _, err := e.clipArgs("in.mp4", ClipOptions{End: time.Second}); err == nil {
		t.Error("missing output should be rejected")
	}
}

func TestClipArgsCopyCodec(t *testing.T) {
	e := bareExecutor()
	args, err := e.clipArgs("in.mp4", ClipOptions{Start: time.Second, End: 2 * time.Second, Output: "o.mp4", CopyCodec: true})
	if err != nil {
		t.Fatalf("clipArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c copy") {
		t.Errorf("expected stream copy, got %q", joined)
	}
	if strings.Contains(joined, "-crf") {
		t.Errorf("stream copy must not re-encode: %q", joined)
	}
}

func TestOffsetProgress(t *testing.T) {
	if offsetProgress(nil, time.Second) != nil {
		t.Error("nil callback should stay nil")
	}

	var got []time.Duration
	fn := offsetProgress(func(p *Progress) { got = append(got, p.Elapsed()) }, 4*time.Second)

	orig := &Progress{OutTimeMicros: 1500000}
	fn(orig)
	if len(got) != 1 || got[0] != 5500*time.Millisecond {
		t.Errorf("unexpected offset progress %v", got)
	}
	if orig.OutTimeMicros != 1500000 {
		t.Error("caller's progress block must not be modified")
	}
}

func TestDeleteRangeArgs(t *testing.T) {
	e := bareExecutor()
	args, err := e.deleteRangeArgs("in.mp4", RangeOptions{Start: time.Second, End: 3 * time.Second, Output: "o.mp4"})
	if err != nil {
		t.Fatalf("deleteRangeArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-af") {
		t.Errorf("audio filter without audio stream: %q", joined)
	}

	args, _ = e.deleteRangeArgs("in.mp4", RangeOptions{Start: time.Second, End: 3 * time.Second, Output: "o.mp4", HasAudio: true})
	joined = strings.Join(args, " ")
	if !strings.Contains(joined, "aselect='not(between(t,1.000,3.000))'") {
		t.Errorf("missing audio select in %q", joined)
	}
}

func TestSpeedArgs(t *testing.T) {
	e := bareExecutor()
	args, err := e.speedArgs("in.mp4", SpeedOptions{Factor: 2, Output: "o.mp4"})
	if err != nil {
		t.Fatalf("speedArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "setpts=PTS/2") || !strings.Contains(joined, "-an") {
		t.Errorf("unexpected args %q", joined)
	}

	for _, f := range []float64{0, 0.1, 8} {
		if _, err := e.speedArgs("in.mp4", SpeedOptions{Factor: f, Output: "o.mp4"}); err == nil {
			t.Errorf("factor %v should be rejected", f)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	raw := `{
		"format": {"duration": "12.480000", "bit_rate": "512000", "size": "798720"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 640, "height": 480, "r_frame_rate": "30/1"},
			{"codec_type": "audio", "codec_name": "aac"}
		]
	}`
	info, err := parseProbeOutput([]byte(raw))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.Duration != 12480*time.Millisecond {
		t.Errorf("duration %v", info.Duration)
	}
	if !info.HasVideo || !info.HasAudio || info.Width != 640 || info.FPS != 30 || info.Size != 798720 {
		t.Errorf("unexpected info %+v", info)
	}

	// browser webm: duration only on the stream
	info, err = parseProbeOutput([]byte(`{"format": {}, "streams": [{"codec_type": "video", "duration": "3.5"}]}`))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.Duration != 3500*time.Millisecond {
		t.Errorf("stream duration fallback: %v", info.Duration)
	}

	if _, err := parseProbeOutput([]byte(`{"format": {}, "streams": []}`)); err == nil {
		t.Error("expected error when no streams")
	}
}

func TestStreamOutputProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=30", "fps=29.5", "out_time_us=1000000", "out_time=00:00:01.000000", "speed=2.1x", "progress=continue",
		"[mp4 @ 0x0] something odd",
		"frame=60", "out_time_us=2000000", "progress=end",
	}, "\n")

	var progress []*Progress
	var logs []string
	bareExecutor().streamOutput(strings.NewReader(input),
		func(p *Progress) { progress = append(progress, p) },
		func(line string) { logs = append(logs, line) })

	if len(progress) != 2 {
		t.Fatalf("expected 2 progress blocks, got %d", len(progress))
	}
	if progress[0].Frame != 30 || progress[0].Elapsed() != time.Second || progress[0].Speed != "2.1x" {
		t.Errorf("unexpected first block %+v", progress[0])
	}
	if progress[1].Elapsed() != 2*time.Second {
		t.Errorf("unexpected second block %+v", progress[1])
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "something odd") {
		t.Errorf("unexpected log lines %q", logs)
	}
}

func TestExecErrorReason(t *testing.T) {
	base := errors.New("exit status 1")
	err := &ExecError{Tail: []string{"first", "Invalid argument"}, Err: base}
	if !strings.Contains(err.Error(), "Invalid argument") {
		t.Errorf("error should carry the last stderr line: %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("ExecError should unwrap to the exit error")
	}
}

func TestLineTailBounded(t *testing.T) {
	tail := newLineTail(3)
	for _, l := range []string{"a", "", "b", "c", "d"} {
		tail.add(l)
	}
	if got := strings.Join(tail.lines(), ","); got != "b,c,d" {
		t.Errorf("unexpected tail %q", got)
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := generateTestVideo(t, "2")
	e := newTestExecutor(t)

	info, err := e.ProbeVideo(context.Background(), src)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if !info.HasAudio {
		t.Error("expected an audio stream")
	}
	t.Logf("Video info: %dx%d, %.2f fps, duration: %v", info.Width, info.Height, info.FPS, info.Duration)
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)
	e := newTestExecutor(t)

	if _, err := e.ProbeVideo(context.Background(), "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)
	if _, err := e.ProbeVideo(context.Background(), invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestEditOperations(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := generateTestVideo(t, "3")
	e := newTestExecutor(t)
	ctx := context.Background()
	dir := t.TempDir()

	durationOf := func(path string) float64 {
		t.Helper()
		d, err := e.Duration(ctx, path)
		if err != nil {
			t.Fatalf("probe %s: %v", path, err)
		}
		return d
	}

	trimmed := filepath.Join(dir, "trim.mp4")
	if err := e.Trim(ctx, src, ClipOptions{Start: 500 * time.Millisecond, End: 1500 * time.Millisecond, Output: trimmed}); err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if d := durationOf(trimmed); d < 0.8 || d > 1.3 {
		t.Errorf("trimmed duration %.2f, want ~1", d)
	}

	first, second := filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")
	if err := e.Split(ctx, src, SplitOptions{At: time.Second, Duration: 3 * time.Second, First: first, Second: second}); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if d := durationOf(second); d < 1.7 || d > 2.3 {
		t.Errorf("second half %.2f, want ~2", d)
	}

	cut := filepath.Join(dir, "cut.mp4")
	if err := e.DeleteRange(ctx, src, RangeOptions{Start: time.Second, End: 2 * time.Second, Output: cut, HasAudio: true}); err != nil {
		t.Fatalf("DeleteRange failed: %v", err)
	}
	if d := durationOf(cut); d < 1.7 || d > 2.3 {
		t.Errorf("after delete %.2f, want ~2", d)
	}

	fast := filepath.Join(dir, "fast.mp4")
	if err := e.ChangeSpeed(ctx, src, SpeedOptions{Factor: 2, Output: fast, HasAudio: true}); err != nil {
		t.Fatalf("ChangeSpeed failed: %v", err)
	}
	if d := durationOf(fast); d < 1.2 || d > 1.8 {
		t.Errorf("double speed %.2f, want ~1.5", d)
	}

	frame := filepath.Join(dir, "frame.jpg")
	if err := e.ExtractFrame(ctx, src, time.Second, frame); err != nil {
		t.Fatalf("ExtractFrame failed: %v", err)
	}
	if stat, err := os.Stat(frame); err != nil || stat.Size() == 0 {
		t.Errorf("frame not written: %v", err)
	}
}

func TestRunFailureCarriesReason(t *testing.T) {
	skipIfNoFFmpeg(t)
	e := newTestExecutor(t)

	err := e.Run(context.Background(), RunOptions{Args: []string{"-i", "nonexistent.mp4", filepath.Join(t.TempDir(), "o.mp4")}})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got %v", err)
	}
	if len(execErr.Tail) == 0 {
		t.Error("expected stderr tail")
	}
	t.Logf("Error (expected): %v", err)
}
