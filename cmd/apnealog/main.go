package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/meltforce/apnealog/internal/config"
)

func main() {
	logger := newLogger(nil)

	cfg := config.Default()
	if _, err := os.Stat("apnealog.toml"); err == nil {
		if loaded, err := config.Load("apnealog.toml"); err == nil {
			cfg = loaded
		} else {
			logger.Warn("ignoring unreadable config file", "err", err)
		}
	}

	runner := NewRunner(cfg, logger)

	app := &cli.Command{
		Name:     "apnealog",
		Usage:    "Decode and analyze freediving activity files",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newLogger creates a logger with timestamps enabled, defaulting to stderr.
func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}
