package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/pkg/util"
)

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Print media information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := newExecutor(log.Logger, cfg)
		if err != nil {
			return err
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:     %s\n", args[0])
		fmt.Fprintf(out, "duration: %s (%.3fs)\n", util.FormatDuration(info.Duration), info.Duration.Seconds())
		fmt.Fprintf(out, "size:     %d bytes\n", info.Size)
		if info.HasVideo {
			fmt.Fprintf(out, "video:    %s %dx%d @ %.2f fps\n", info.VideoCodec, info.Width, info.Height, info.FPS)
		}
		if info.HasAudio {
			fmt.Fprintf(out, "audio:    %s\n", info.AudioCodec)
		}
		return nil
	},
}
