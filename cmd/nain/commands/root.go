package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nain/internal/config"
	"github.com/teslashibe/go-nain/internal/log"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	globalConfig  config.Config
	configLoadErr error
)

var rootCmd = &cobra.Command{
	Use:   "nain",
	Short: "Walking navigation assistant",
	Long: `nain - turn-by-turn walking navigation with obstacle alerts.

Configuration is read in order from built-in defaults, the YAML file given
with --config, a .env file in the working directory, and the environment.

Examples:
  # Run the server on the default port
  nain serve

  # Print a route from a coordinate
  nain route --from 40.7484,-73.9857 "Bryant Park"

  # Check the beep cadence an image would produce
  nain detect street.jpg`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML tunables file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
}

func initConfig() {
	globalConfig, configLoadErr = config.Load(configPath)

	level := globalConfig.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log.Setup(log.Options{Level: level, Format: logFormat})
}

// GetConfig returns the loaded configuration, or the error that stopped
// it from loading. Commands that need no configuration never call it.
func GetConfig() (config.Config, error) {
	if configLoadErr != nil {
		return globalConfig, fmt.Errorf("config not available: %w", configLoadErr)
	}
	return globalConfig, nil
}
