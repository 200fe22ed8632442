package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobokit/voicecall/cmd/voicecall/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicecall",
	Short: "Voice calls with a conversational agent",
	Long: `voicecall - talk to a conversational agent from your terminal.

A call captures your voice from the microphone in turns, sends each
turn over a websocket channel to the gateway, and plays the agent's
spoken reply. Turn transcripts are printed as the call progresses and
saved to local history when the call ends.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/voicecall/
  Linux:   ~/.config/voicecall/
  Windows: %AppData%/voicecall/

Examples:
  # Start a call against the configured gateway
  voicecall call

  # Point at a gateway explicitly
  voicecall call --gateway wss://gw.example.com/ws --api https://api.example.com/v1 --user u-123

  # Review past calls
  voicecall history list
  voicecall history show <session-id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		// Commands that need config get a clear error via GetConfig().
		// This avoids failing config-free commands like 'voicecall version'.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
