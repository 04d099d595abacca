// Package cmd provides the CLI commands for checkngn.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/checkngn/checkngn/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "checkngn",
	Short: "checkngn - rule action normalizer",
	Long: `checkngn normalizes the actions attached to rule definitions.

Actions may be written as a bare name, a [name, params] pair, an
{action, params} mapping, or a list mixing all three. checkngn turns every
form into a list of {action, params} records ready for a rule engine.

Configuration:
  Config is loaded from checkngn.yaml in the current directory,
  $HOME/.checkngn/, or /etc/checkngn/.

  Environment variables can override config values with the CHECKNGN_ prefix.
  Example: CHECKNGN_NORMALIZER_NESTED_LISTS=flatten

Commands:
  normalize   Normalize the actions of a rule file or a single descriptor
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./checkngn.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// newLogger builds the process logger from the log config.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
