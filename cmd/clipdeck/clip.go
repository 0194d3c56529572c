package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/pkg/util"
)

var (
	clipStart  string
	clipEnd    string
	clipAt     string
	clipFactor float64
)

var clipCmd = &cobra.Command{
	Use:   "clip",
	Short: "Clip editing commands",
}

var clipTrimCmd = &cobra.Command{
	Use:   "trim [input video]",
	Short: "Keep only --start to --end",
	Args:  cobra.ExactArgs(1),
	RunE:  rangeEdit(processor.KindTrim),
}

var clipDeleteRangeCmd = &cobra.Command{
	Use:   "delete-range [input video]",
	Short: "Cut --start to --end out of the video",
	Args:  cobra.ExactArgs(1),
	RunE:  rangeEdit(processor.KindDeleteRange),
}

var clipExtractRangeCmd = &cobra.Command{
	Use:   "extract-range [input video]",
	Short: "Copy --start to --end into a new clip",
	Args:  cobra.ExactArgs(1),
	RunE:  rangeEdit(processor.KindExtractRange),
}

var clipSplitCmd = &cobra.Command{
	Use:   "split [input video]",
	Short: "Split the video in two at --at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := util.ParseTimestamp(clipAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		return runEdit(cmd, args[0], processor.Request{Kind: processor.KindSplit, At: at})
	},
}

var clipSpeedCmd = &cobra.Command{
	Use:   "speed [input video]",
	Short: "Change playback speed by --factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args[0], processor.Request{Kind: processor.KindSpeed, Factor: clipFactor})
	},
}

func rangeEdit(kind processor.Kind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		start, err := util.ParseTimestamp(clipStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := util.ParseTimestamp(clipEnd)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		return runEdit(cmd, args[0], processor.Request{Kind: kind, Start: start, End: end})
	}
}

// runEdit imports input, runs req against it and prints the produced files
func runEdit(cmd *cobra.Command, input string, req processor.Request) error {
	cfg := config.FromContext(cmd.Context())

	a, err := newApp(log.Logger, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := a.proc.Import(cmd.Context(), input)
	if err != nil {
		return err
	}
	req.ClipID = source.ID

	res, err := a.proc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	for _, c := range res.Clips {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, util.FormatSeconds(c.Duration), c.Path)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{clipTrimCmd, clipDeleteRangeCmd, clipExtractRangeCmd} {
		c.Flags().StringVar(&clipStart, "start", "", "range start (SS.mmm, MM:SS.mmm or HH:MM:SS.mmm)")
		c.Flags().StringVar(&clipEnd, "end", "", "range end")
		c.MarkFlagRequired("start")
		c.MarkFlagRequired("end")
	}
	clipSplitCmd.Flags().StringVar(&clipAt, "at", "", "split point")
	clipSplitCmd.MarkFlagRequired("at")
	clipSpeedCmd.Flags().Float64Var(&clipFactor, "factor", 2, "speed factor (0.25 to 4)")

	clipCmd.AddCommand(clipTrimCmd, clipDeleteRangeCmd, clipExtractRangeCmd, clipSplitCmd, clipSpeedCmd)
}
