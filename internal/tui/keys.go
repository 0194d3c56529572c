package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left        key.Binding
	Right       key.Binding
	JumpLeft    key.Binding
	JumpRight   key.Binding
	Click       key.Binding
	Delete      key.Binding
	Extract     key.Binding
	Cancel      key.Binding
	Commit      key.Binding
	TrimStart   key.Binding
	TrimEnd     key.Binding
	NudgeBack   key.Binding
	NudgeFwd    key.Binding
	Split       key.Binding
	SplitMiddle key.Binding
	ApplyTrim   key.Binding
	Faster      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "back 1s")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "forward 1s")),
	JumpLeft:    key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("shift+←", "back 5s")),
	JumpRight:   key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("shift+→", "forward 5s")),
	Click:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "click timeline")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "select to delete")),
	Extract:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select to extract")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Commit:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commit")),
	TrimStart:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "trim start")),
	TrimEnd:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "trim end")),
	NudgeBack:   key.NewBinding(key.WithKeys("<", ","), key.WithHelp("<", "trim end -0.5s")),
	NudgeFwd:    key.NewBinding(key.WithKeys(">", "."), key.WithHelp(">", "trim end +0.5s")),
	Split:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split at playhead")),
	SplitMiddle: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "split in half")),
	ApplyTrim:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "apply trim")),
	Faster:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "2x speed")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Delete, k.Extract, k.Commit, k.ApplyTrim, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.JumpLeft, k.JumpRight, k.Click},
		{k.Delete, k.Extract, k.Commit, k.Cancel},
		{k.TrimStart, k.TrimEnd, k.NudgeBack, k.NudgeFwd, k.ApplyTrim},
		{k.Split, k.SplitMiddle, k.Faster, k.Help, k.Quit},
	}
}
