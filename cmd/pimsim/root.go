package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/pimfuncsim/core"
)

var rootCmd = &cobra.Command{
	Use:   "pimsim",
	Short: "pimsim is a functional simulator of processing-in-memory DRAM.",
	Long: `pimsim models the compute units, bank modes and accumulators of a ` +
		`PIM-enabled HBM stack, and drives them with host transaction streams.`,
	SilenceUsage: true,
}

var (
	logLevel string
	logJSON  bool

	// envErr is why no .env file was loaded. It is logged once logging is
	// set up.
	envErr error
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"debug, info, trace, warn or error (default $PIMSIM_LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"write log records as JSON")
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		s = os.Getenv("PIMSIM_LOG_LEVEL")
	}

	if s == "" {
		return slog.LevelWarn, nil
	}

	if strings.EqualFold(s, "trace") {
		return core.LevelTrace, nil
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}

	return l, nil
}

// setupLogging installs the default logger. When tracePath is set, records
// go to that file instead of stderr.
func setupLogging(tracePath string) error {
	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr

	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return err
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if logJSON {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))

	if envErr != nil {
		slog.Debug("no .env file loaded", "err", envErr)
	}

	return nil
}
