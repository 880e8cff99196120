// submodule cmd contains command definitions
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	apnealog "github.com/meltforce/apnealog"
	"github.com/meltforce/apnealog/export"
	"github.com/meltforce/apnealog/fitdecode"
	"github.com/meltforce/apnealog/internal/config"
)

// Runner binds commands to the loaded configuration and logger.
type Runner struct {
	cfg    *config.Config
	logger *log.Logger
}

func NewRunner(cfg *config.Config, logger *log.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		decodeCommand(r),
		exportCommand(r),
		notesCommand(r),
	}
}

func decodeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode an activity file and print telemetry points and stats as JSON",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Decode,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a decoded export bundle (manifest, samples, dives)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "apnealog-export",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Canonical sample format (parquet|csv)",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Allow writing into a non-empty output directory",
			},
			&cli.BoolFlag{
				Name:  "copy-source",
				Usage: "Include a verbatim copy of the input file",
			},
		},
		Action: r.Export,
	}
}

func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Print a human-readable session summary",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum dives listed in the dive table (0 = all)",
				Value: -1,
			},
		},
		Action: r.Notes,
	}
}

func (r *Runner) Decode(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("activity file argument is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read activity file: %w", err)
	}

	result := fitdecode.Decode(data)
	r.logger.Info("decoded activity", "samples", result.Stats.SampleCount, "dives", result.Stats.DiveCount)

	enc := json.NewEncoder(os.Stdout)
	if cmd.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("activity file argument is required")
	}

	opts := export.Options{
		Format:     r.cfg.Export.Format,
		Overwrite:  r.cfg.Export.Overwrite,
		CopySource: r.cfg.Export.CopySource,
	}
	if f := cmd.String("format"); f != "" {
		opts.Format = f
	}
	if cmd.Bool("overwrite") {
		opts.Overwrite = true
	}
	if cmd.Bool("copy-source") {
		opts.CopySource = true
	}

	result, err := export.ExportFile(path, cmd.String("out"), opts)
	if err != nil {
		return err
	}
	r.logger.Info("bundle written",
		"dir", result.OutputDir,
		"samples", result.SampleCount,
		"dives", result.DiveCount,
		"file_crc_valid", result.FileCRCValid,
	)
	return nil
}

func (r *Runner) Notes(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("activity file argument is required")
	}

	limit := r.cfg.Notes.DiveTableLimit
	if v := cmd.Int("limit"); v >= 0 {
		limit = int(v)
	}

	analysis, err := apnealog.AnalyzeFile(path, apnealog.Config{DiveTableLimit: limit})
	if err != nil {
		return err
	}
	fmt.Println(analysis.Notes)
	return nil
}
