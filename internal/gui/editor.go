package gui

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

const nudgeSeconds = 0.5

// Backend imports and edits clips for the editor
type Backend interface {
	Import(ctx context.Context, path string) (*clips.Clip, error)
	RunWithProgress(ctx context.Context, req processor.Request, onProgress processor.ProgressFunc) (*processor.Result, error)
}

type editor struct {
	ctx     context.Context
	logger  zerolog.Logger
	backend Backend
	ctrl    *timeline.Controller
	window  fyne.Window
	clip    *clips.Clip
	busy    bool

	clipLabel   *widget.Label
	timeLabel   *widget.Label
	trimLabel   *widget.Label
	modeLabel   *widget.Label
	statusLabel *widget.Label
	slider      *widget.Slider
	progress    *widget.ProgressBar
	actions     []*widget.Button
	splitHere   *widget.Button
	splitHalf   *widget.Button
}

// Run opens the editor window and blocks until it closes. initial, when
// set, is imported and loaded right away.
func Run(ctx context.Context, logger zerolog.Logger, backend Backend, opts timeline.Options, initial string) {
	a := app.NewWithID("clipdeck")
	w := a.NewWindow("clipdeck editor")
	w.Resize(fyne.NewSize(720, 420))

	e := newEditor(ctx, logger, backend, opts, w)
	if initial != "" {
		e.load(initial)
	}

	w.ShowAndRun()
}

func newEditor(ctx context.Context, logger zerolog.Logger, backend Backend, opts timeline.Options, w fyne.Window) *editor {
	e := &editor{
		ctx:     ctx,
		logger:  logger.With().Str("component", "gui").Logger(),
		backend: backend,
		window:  w,
	}
	opts.Sink = timeline.SinkFunc(e.submit)
	e.ctrl = timeline.New(logger, opts)

	w.SetContent(e.build())
	e.ctrl.Subscribe(e.refresh)
	e.refresh(e.ctrl.Snapshot())
	return e
}

func (e *editor) build() fyne.CanvasObject {
	e.clipLabel = widget.NewLabel("No video loaded")
	e.timeLabel = widget.NewLabel("")
	e.trimLabel = widget.NewLabel("")
	e.modeLabel = widget.NewLabel("")
	e.statusLabel = widget.NewLabel("")
	e.progress = widget.NewProgressBar()
	e.progress.Hide()

	e.slider = widget.NewSlider(0, 1)
	e.slider.Step = 0.01
	e.slider.OnChangeEnded = func(val float64) {
		e.report(e.ctrl.OnTimelineClick(val))
	}

	button := func(label string, fn func() error) *widget.Button {
		b := widget.NewButton(label, func() { e.report(fn()) })
		e.actions = append(e.actions, b)
		return b
	}

	selection := container.NewHBox(
		button("Select Delete", e.ctrl.BeginDeleteSelection),
		button("Select Extract", e.ctrl.BeginExtractSelection),
		button("Commit", e.commit),
		button("Cancel", func() error { e.ctrl.CancelSelection(); return nil }),
	)
	trim := container.NewHBox(
		button("Mark Start", func() error {
			return e.ctrl.SetTrim(e.ctrl.CurrentTime(), e.ctrl.Trim().End)
		}),
		button("Mark End", func() error {
			return e.ctrl.SetTrim(e.ctrl.Trim().Start, e.ctrl.CurrentTime())
		}),
		button("End -0.5s", func() error { return e.ctrl.AdjustTrim(timeline.EdgeEnd, -nudgeSeconds) }),
		button("End +0.5s", func() error { return e.ctrl.AdjustTrim(timeline.EdgeEnd, nudgeSeconds) }),
		button("Apply Trim", func() error { _, err := e.ctrl.ApplyTrim(); return err }),
	)
	e.splitHere = button("Split Here", func() error { _, err := e.ctrl.SplitAtCurrentTime(); return err })
	e.splitHalf = button("Split Half", func() error { _, err := e.ctrl.SplitAtMidpoint(); return err })
	edits := container.NewHBox(
		e.splitHere,
		e.splitHalf,
		button("2x Speed", func() error {
			if e.clip == nil {
				return fmt.Errorf("no video loaded")
			}
			e.start(processor.Request{Kind: processor.KindSpeed, ClipID: e.clip.ID, Factor: 2})
			return nil
		}),
	)

	loadButton := widget.NewButton("Load Video", func() {
		fd := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, e.window)
				return
			}
			if ur == nil {
				return
			}
			defer ur.Close()
			e.load(ur.URI().Path())
		}, e.window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp4", ".mov", ".mkv", ".webm"}))
		fd.Show()
	})
	e.actions = append(e.actions, loadButton)

	return container.NewVBox(
		e.clipLabel,
		e.slider,
		e.timeLabel,
		e.trimLabel,
		e.modeLabel,
		selection,
		trim,
		edits,
		loadButton,
		e.progress,
		e.statusLabel,
	)
}

// load imports path off the UI goroutine and loads it as the current asset
func (e *editor) load(path string) {
	e.setBusy(true, "probing "+path)
	go func() {
		clip, err := e.backend.Import(e.ctx, path)
		fyne.Do(func() {
			e.setBusy(false, "")
			if err != nil {
				e.report(err)
				return
			}
			e.setClip(clip)
		})
	}()
}

func (e *editor) setClip(clip *clips.Clip) {
	e.clip = clip
	e.slider.Min = 0
	e.slider.Max = clip.Duration
	e.ctrl.LoadAsset(clip.ID, clip.Duration)
}

func (e *editor) commit() error {
	if e.ctrl.Mode() == timeline.ExtractReady {
		_, err := e.ctrl.CommitExtractRange()
		return err
	}
	_, err := e.ctrl.CommitDeleteRange()
	return err
}

// submit receives controller requests on the UI goroutine
func (e *editor) submit(r timeline.Request) {
	e.start(processor.FromTimeline(r))
}

func (e *editor) start(req processor.Request) {
	e.setBusy(true, "running "+strings.ReplaceAll(string(req.Kind), "_", " ")+"...")
	go func() {
		res, err := e.backend.RunWithProgress(e.ctx, req, func(f float64) {
			fyne.Do(func() { e.progress.SetValue(f) })
		})
		fyne.Do(func() { e.finish(req, res, err) })
	}()
}

func (e *editor) finish(req processor.Request, res *processor.Result, err error) {
	e.setBusy(false, "")
	if err != nil {
		e.logger.Warn().Err(err).Str("kind", string(req.Kind)).Msg("edit failed")
		e.ctrl.OnProcessingFailed(err.Error())
		dialog.ShowError(err, e.window)
		return
	}

	names := make([]string, 0, len(res.Clips))
	for _, c := range res.Clips {
		names = append(names, c.Name)
	}
	e.statusLabel.SetText("Saved " + strings.Join(names, ", "))

	// an extraction leaves the source loaded
	if req.Kind != processor.KindExtractRange && len(res.Clips) > 0 {
		e.setClip(res.Clips[0])
	}
}

func (e *editor) setBusy(busy bool, status string) {
	e.busy = busy
	if busy {
		e.progress.SetValue(0)
		e.progress.Show()
	} else {
		e.progress.Hide()
	}
	e.syncActions(e.ctrl.Snapshot())
	e.statusLabel.SetText(status)
}

// syncActions enables what the snapshot allows; everything is off while busy
func (e *editor) syncActions(s timeline.Snapshot) {
	for _, b := range e.actions {
		setEnabled(b, !e.busy)
	}
	setEnabled(e.splitHere, !e.busy && s.CanSplitAtCurrentTime)
	setEnabled(e.splitHalf, !e.busy && s.CanSplitAtMidpoint)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (e *editor) report(err error) {
	if err != nil {
		e.statusLabel.SetText("⚠ " + err.Error())
	}
}

func (e *editor) refresh(s timeline.Snapshot) {
	lines := describe(s)
	if e.clip != nil {
		e.clipLabel.SetText(e.clip.Name)
	}
	e.timeLabel.SetText(lines.time)
	e.trimLabel.SetText(lines.trim)
	e.modeLabel.SetText(lines.mode)

	e.slider.Value = s.CurrentTime
	e.slider.Refresh()
	e.syncActions(s)
}

type snapshotText struct {
	time string
	trim string
	mode string
}

func describe(s timeline.Snapshot) snapshotText {
	text := snapshotText{
		time: fmt.Sprintf("Current: %s / %s (%.0f%%)",
			util.FormatSeconds(s.CurrentTime), util.FormatSeconds(s.Duration), s.CurrentTimePercent),
		trim: fmt.Sprintf("Trim: %s - %s", util.FormatSeconds(s.Trim.Start), util.FormatSeconds(s.Trim.End)),
	}
	if !s.IsCurrentTimeInTrimRange {
		text.trim += " (playhead outside)"
	}

	switch s.Mode {
	case timeline.SelectingDelete, timeline.SelectingExtract:
		text.mode = "Click the first edge"
		if s.Anchor != nil {
			text.mode = "Click the second edge (anchor " + util.FormatSeconds(*s.Anchor) + ")"
		}
	case timeline.DeleteReady:
		text.mode = "Delete " + s.DeleteRange.String() + " ready"
	case timeline.ExtractReady:
		text.mode = "Extract " + s.ExtractRange.String() + " ready"
	default:
		text.mode = ""
	}
	if s.LastFailure != "" && s.Mode == timeline.Idle {
		text.mode = "Last edit failed: " + s.LastFailure
	}
	return text
}
