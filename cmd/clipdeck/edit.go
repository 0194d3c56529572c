package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/gui"
	"github.com/keagan/clipdeck/internal/logging"
	"github.com/keagan/clipdeck/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit [input video]",
	Short: "Edit a video in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		// the editor owns the terminal
		logger := logging.Interactive("editor", verbose)

		a, err := newApp(logger, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		clip, err := a.proc.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		model := tui.New(cmd.Context(), logger, a.proc, clip, timelineOptions(cfg))
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("editor: %w", err)
		}
		return nil
	},
}

var guiCmd = &cobra.Command{
	Use:   "gui [input video]",
	Short: "Open the desktop editor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		a, err := newApp(log.Logger, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		initial := ""
		if len(args) == 1 {
			initial = args[0]
		}
		gui.Run(cmd.Context(), log.Logger, a.proc, timelineOptions(cfg), initial)
		return nil
	},
}
