// Package main is the entry point for the Melodia coordinator.
//
// Melodia is a headless music library and playback-state coordinator:
// - Event-driven communication between services
// - Dependency injection for testability
// - Ports-and-adapters separation from platform collaborators
//
// Build:
//
//	go build -o build/melodia ./cmd/melodia
//
// Run:
//
//	./build/melodia --music ~/Music
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evxf/melodia/internal/app"
	"github.com/evxf/melodia/internal/logger"
)

var (
	flagMusicDirs []string
	flagDataPath  string
	flagNoWatch   bool
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "melodia",
	Short: "Melodia is a music library and playback-state coordinator.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config := app.DefaultConfig()
		if len(flagMusicDirs) > 0 {
			config.MusicDirs = flagMusicDirs
		}
		if cmd.Flags().Changed("data") {
			config.DataPath = flagDataPath
		}
		config.WatchLibrary = !flagNoWatch
		config.LogLevel = logger.ParseLevel(flagLogLevel)
		config.LogFormat = flagLogFormat

		application, err := app.NewApplication(config)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		defer application.Shutdown()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return application.Run(ctx)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(app.GetVersionInfo().FullString())
	},
}

func init() {
	rootCmd.Flags().StringSliceVar(&flagMusicDirs, "music", nil, "directories to scan for audio files")
	rootCmd.Flags().StringVar(&flagDataPath, "data", "", "path to the state database (empty for in-memory)")
	rootCmd.Flags().BoolVar(&flagNoWatch, "no-watch", false, "disable filesystem watching")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flagLogFormat, "log-format", "text", "log format (text, json)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
