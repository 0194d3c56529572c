package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/logging"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "clipdeck",
	Short: "clipdeck - timeline video clip editor",
	Long:  "Trim, split, cut and extract ranges of video clips from a terminal editor, a desktop editor or an HTTP API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose, logFormat)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(clipCmd)
	rootCmd.AddCommand(configCmd)
}
