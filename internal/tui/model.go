package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/internal/timeline"
	"github.com/keagan/clipdeck/pkg/util"
)

const (
	stepSeconds  = 1.0
	jumpSeconds  = 5.0
	nudgeSeconds = 0.5
	defaultWidth = 64
)

// Runner executes edits for the editor
type Runner interface {
	RunWithProgress(ctx context.Context, req processor.Request, onProgress processor.ProgressFunc) (*processor.Result, error)
}

type progressMsg float64

// waitProgress delivers the next progress report; nil once the edit is over
func waitProgress(ch <-chan float64) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(f)
	}
}

type editDoneMsg struct {
	req    processor.Request
	result *processor.Result
}

type editFailedMsg struct {
	req processor.Request
	err error
}

// outbox collects requests the controller emits during one Update
type outbox struct {
	requests []timeline.Request
}

func (o *outbox) Submit(r timeline.Request) {
	o.requests = append(o.requests, r)
}

func (o *outbox) drain() []timeline.Request {
	out := o.requests
	o.requests = nil
	return out
}

// Model is the terminal editor for one clip at a time
type Model struct {
	ctx     context.Context
	logger  zerolog.Logger
	ctrl    *timeline.Controller
	runner  Runner
	outbox  *outbox
	clip    *clips.Clip
	cursor  float64
	width   int
	busy    bool
	status  string

	progress   float64
	progressCh <-chan float64

	errMsg  string
	spinner spinner.Model
	help    help.Model
	quit    bool
}

// New creates an editor with clip loaded
func New(ctx context.Context, logger zerolog.Logger, runner Runner, clip *clips.Clip, opts timeline.Options) Model {
	box := &outbox{}
	opts.Sink = box
	ctrl := timeline.New(logger, opts)
	ctrl.LoadAsset(clip.ID, clip.Duration)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:     ctx,
		logger:  logger.With().Str("component", "tui").Logger(),
		ctrl:    ctrl,
		runner:  runner,
		outbox:  box,
		clip:    clip,
		width:   defaultWidth,
		spinner: s,
		help:    help.New(),
	}
}

// Controller exposes the engine, mainly for tests
func (m Model) Controller() *timeline.Controller {
	return m.ctrl
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 16)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quit = true
			return m, tea.Quit
		}
		if key.Matches(msg, keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)

	case progressMsg:
		if !m.busy {
			return m, nil
		}
		m.progress = float64(msg)
		return m, waitProgress(m.progressCh)

	case editDoneMsg:
		m.busy = false
		m.progress, m.progressCh = 0, nil
		m.errMsg = ""
		m.applyResult(msg)
		return m, nil

	case editFailedMsg:
		m.busy = false
		m.progress, m.progressCh = 0, nil
		m.status = ""
		m.errMsg = msg.err.Error()
		m.ctrl.OnProcessingFailed(msg.err.Error())
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// bindings is the key map with actions the current state cannot run disabled
func (m Model) bindings() keyMap {
	km := keys
	km.Split.SetEnabled(m.ctrl.CanSplitAtCurrentTime())
	km.SplitMiddle.SetEnabled(m.ctrl.CanSplitAtMidpoint())
	return km
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	var err error
	km := m.bindings()

	switch {
	case key.Matches(msg, km.JumpLeft):
		m.moveCursor(-jumpSeconds)
	case key.Matches(msg, km.JumpRight):
		m.moveCursor(jumpSeconds)
	case key.Matches(msg, km.Left):
		m.moveCursor(-stepSeconds)
	case key.Matches(msg, km.Right):
		m.moveCursor(stepSeconds)
	case key.Matches(msg, km.Click):
		err = m.ctrl.OnTimelineClick(m.cursor)
	case key.Matches(msg, km.Delete):
		err = m.ctrl.BeginDeleteSelection()
	case key.Matches(msg, km.Extract):
		err = m.ctrl.BeginExtractSelection()
	case key.Matches(msg, km.Cancel):
		m.ctrl.CancelSelection()
	case key.Matches(msg, km.Commit):
		err = m.commit()
	case key.Matches(msg, km.TrimStart):
		err = m.ctrl.SetTrim(m.cursor, m.ctrl.Trim().End)
	case key.Matches(msg, km.TrimEnd):
		err = m.ctrl.SetTrim(m.ctrl.Trim().Start, m.cursor)
	case key.Matches(msg, km.NudgeBack):
		err = m.ctrl.AdjustTrim(timeline.EdgeEnd, -nudgeSeconds)
	case key.Matches(msg, km.NudgeFwd):
		err = m.ctrl.AdjustTrim(timeline.EdgeEnd, nudgeSeconds)
	case key.Matches(msg, km.Split):
		_, err = m.ctrl.SplitAtCurrentTime()
	case key.Matches(msg, km.SplitMiddle):
		_, err = m.ctrl.SplitAtMidpoint()
	case key.Matches(msg, km.ApplyTrim):
		_, err = m.ctrl.ApplyTrim()
	case key.Matches(msg, km.Faster):
		return m.start(processor.Request{Kind: processor.KindSpeed, ClipID: m.clip.ID, Factor: 2})
	default:
		return m, nil
	}

	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	// the controller emits at most one request per key
	if reqs := m.outbox.drain(); len(reqs) > 0 {
		return m.start(processor.FromTimeline(reqs[0]))
	}
	return m, nil
}

// commit finalizes whichever selection is ready
func (m *Model) commit() error {
	if m.ctrl.Mode() == timeline.ExtractReady {
		_, err := m.ctrl.CommitExtractRange()
		return err
	}
	_, err := m.ctrl.CommitDeleteRange()
	return err
}

func (m *Model) moveCursor(delta float64) {
	d := m.ctrl.Duration()
	m.cursor = math.Max(0, math.Min(d, m.cursor+delta))
}

// start runs req off the UI loop
func (m Model) start(req processor.Request) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = fmt.Sprintf("running %s...", strings.ReplaceAll(string(req.Kind), "_", " "))
	m.logger.Debug().Str("kind", string(req.Kind)).Str("clip", req.ClipID).Msg("starting edit")

	ch := make(chan float64, 1)
	m.progress, m.progressCh = 0, ch

	ctx, runner := m.ctx, m.runner
	run := func() tea.Msg {
		defer close(ch)
		res, err := runner.RunWithProgress(ctx, req, func(f float64) {
			// drop reports the view has not caught up with
			select {
			case ch <- f:
			default:
			}
		})
		if err != nil {
			return editFailedMsg{req: req, err: err}
		}
		return editDoneMsg{req: req, result: res}
	}
	return m, tea.Batch(m.spinner.Tick, run, waitProgress(ch))
}

// applyResult loads the produced clip; an extraction leaves the source loaded
func (m *Model) applyResult(msg editDoneMsg) {
	if msg.result == nil || len(msg.result.Clips) == 0 {
		m.status = successStyle.Render("done")
		return
	}

	names := make([]string, 0, len(msg.result.Clips))
	for _, c := range msg.result.Clips {
		names = append(names, c.Name)
	}
	m.status = successStyle.Render("saved " + strings.Join(names, ", "))

	if msg.req.Kind == processor.KindExtractRange {
		return
	}
	next := msg.result.Clips[0]
	m.clip = next
	m.cursor = 0
	m.ctrl.LoadAsset(next.ID, next.Duration)
}

func (m Model) View() string {
	if m.quit {
		return ""
	}

	snap := m.ctrl.Snapshot()
	var b strings.Builder

	b.WriteString(bulletStyle.Render("┌") + titleStyle.Render("clipdeck") + "\n")
	b.WriteString(bulletStyle.Render("├") + textStyle.Render(m.clip.Name) +
		dimStyle.Render("  "+util.FormatSeconds(snap.Duration)) + "\n")
	b.WriteString(bulletStyle.Render("│") + "\n")

	bar, markers := renderTimeline(snap, m.cursor, m.width)
	b.WriteString("  " + bar + "\n")
	b.WriteString("  " + markers + "\n")
	b.WriteString(bulletStyle.Render("│") + "\n")

	b.WriteString(bulletStyle.Render("├") + dimStyle.Render("cursor   ") + textStyle.Render(util.FormatSeconds(m.cursor)) + "\n")
	b.WriteString(bulletStyle.Render("├") + dimStyle.Render("playhead ") + textStyle.Render(util.FormatSeconds(snap.CurrentTime)) + "\n")
	b.WriteString(bulletStyle.Render("├") + dimStyle.Render("trim     ") +
		trimStyle.Render(util.FormatSeconds(snap.Trim.Start)+" - "+util.FormatSeconds(snap.Trim.End)) + "\n")
	b.WriteString(bulletStyle.Render("├") + dimStyle.Render("mode     ") + textStyle.Render(modeLabel(snap)) + "\n")

	switch {
	case m.busy:
		line := m.spinner.View() + m.status
		if m.progress > 0 {
			line += dimStyle.Render(fmt.Sprintf(" %.0f%%", m.progress*100))
		}
		b.WriteString(bulletStyle.Render("└") + line + "\n")
	case m.errMsg != "":
		b.WriteString(bulletStyle.Render("└") + errorStyle.Render(m.errMsg) + "\n")
	case m.status != "":
		b.WriteString(bulletStyle.Render("└") + m.status + "\n")
	default:
		b.WriteString(bulletStyle.Render("└") + "\n")
	}

	b.WriteString("\n" + m.help.View(m.bindings()))
	return b.String()
}

func modeLabel(s timeline.Snapshot) string {
	switch s.Mode {
	case timeline.SelectingDelete, timeline.SelectingExtract:
		if s.Anchor != nil {
			return fmt.Sprintf("%s (anchor %s)", s.Mode, util.FormatSeconds(*s.Anchor))
		}
		return s.Mode.String() + " (click the first edge)"
	case timeline.DeleteReady:
		return "delete " + s.DeleteRange.String() + ", c to commit"
	case timeline.ExtractReady:
		return "extract " + s.ExtractRange.String() + ", c to commit"
	default:
		return s.Mode.String()
	}
}

// renderTimeline draws the bar (trim, selection, playhead) and a marker line (cursor, anchor)
func renderTimeline(s timeline.Snapshot, cursor float64, width int) (string, string) {
	if s.Duration <= 0 {
		return dimStyle.Render(strings.Repeat("·", width)), ""
	}

	cell := func(t float64) int {
		i := int(t / s.Duration * float64(width))
		return max(0, min(width-1, i))
	}
	playhead := cell(s.CurrentTime)

	var bar strings.Builder
	for i := 0; i < width; i++ {
		t := (float64(i) + 0.5) / float64(width) * s.Duration
		switch {
		case i == playhead:
			bar.WriteString(playheadStyle.Render("┃"))
		case s.DeleteRange != nil && s.DeleteRange.Contains(t):
			bar.WriteString(deleteStyle.Render("█"))
		case s.ExtractRange != nil && s.ExtractRange.Contains(t):
			bar.WriteString(extractStyle.Render("█"))
		case s.Trim.Contains(t):
			bar.WriteString(trimStyle.Render("━"))
		default:
			bar.WriteString(dimStyle.Render("─"))
		}
	}

	markers := []rune(strings.Repeat(" ", width))
	if s.Anchor != nil {
		markers[cell(*s.Anchor)] = '◆'
	}
	markers[cell(cursor)] = '▲'
	return bar.String(), cursorStyle.Render(string(markers))
}
