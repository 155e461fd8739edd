package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/convert"
	"github.com/starford/localshelf/internal/models"
	"github.com/starford/localshelf/internal/shelf"
)

var errBatchFailed = errors.New("some files failed")

func stowCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "stow",
		Usage:     "Move Markdown files into the knowledge base and journal them",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Keep stowing files as they arrive in PATH",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			target, err := targetPath(cmd, app.Config)
			if err != nil {
				return err
			}
			if cmd.Args().First() != "" {
				if err := requireExisting(target); err != nil {
					return err
				}
			}

			if cmd.Bool("watch") {
				app.Logger.Info("stow: watching for new files", slog.String("dir", target))
				return app.Watch(ctx, target, func(report *models.StowReport, err error) {
					if err != nil {
						app.Logger.Error("stow: batch failed", slog.String("error", err.Error()))
					}
					if report != nil && len(report.Moved)+len(report.Failed) > 0 {
						writeStowReport(out, report)
					}
				})
			}

			report, err := stowTarget(ctx, app.Shelf, target)
			writeStowReport(out, report)
			if err != nil {
				return err
			}
			if report.HasFailures() {
				return fmt.Errorf("%w: %d of %d not stowed", errBatchFailed,
					len(report.Failed), len(report.Moved)+len(report.Failed))
			}
			return nil
		},
	}
}

// requireExisting rejects a PATH the user named that is not there. The
// configured inbox is exempt: a missing inbox just means nothing to stow.
func requireExisting(target string) error {
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: Directory %s does not exist", apperr.ErrNotFound, target)
	}
	return nil
}

// stowTarget stows a single file, or every Markdown file in a directory.
func stowTarget(ctx context.Context, svc *shelf.Service, target string) (*models.StowReport, error) {
	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() {
		return svc.Stow(ctx, []string{target})
	}
	return svc.StowDir(ctx, target)
}

func stowRows(report *models.StowReport) [][]string {
	rows := make([][]string, 0, len(report.Moved)+len(report.Failed))
	for _, m := range report.Moved {
		rows = append(rows, []string{"moved", m.Source, m.Destination})
	}
	for _, f := range report.Failed {
		rows = append(rows, []string{"failed", f.Source, errText(f.Err)})
	}
	return rows
}

func writeStowReport(out io.Writer, report *models.StowReport) {
	if report == nil {
		return
	}
	if len(report.Moved)+len(report.Failed) == 0 {
		fmt.Fprintln(out, "No Markdown files to stow.")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Source", "Destination / Error"}, stowRows(report), nil))
	if report.JournalPath != "" {
		fmt.Fprintf(out, "Journal: %s\n", report.JournalPath)
	}
}

func convertCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert the Markdown files of a directory with pandoc",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format extension (defaults to convert.format)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			target, err := targetPath(cmd, cfg)
			if err != nil {
				return err
			}

			format := cmd.String("format")
			if format == "" {
				format = cfg.Convert.Format
			}
			conv := convert.New(cfg.Convert.Pandoc, format,
				convert.WithWorkers(cfg.Convert.Workers),
				convert.WithLogger(slog.Default()))
			if err := conv.Available(); err != nil {
				return err
			}

			report, err := conv.Convert(ctx, target)
			if err != nil {
				return err
			}
			writeConvertReport(out, report)
			if len(report.Failed) > 0 {
				return fmt.Errorf("%w: %d of %d not converted", errBatchFailed,
					len(report.Failed), len(report.Converted)+len(report.Failed))
			}
			return nil
		},
	}
}

func convertRows(report *convert.Report) [][]string {
	rows := make([][]string, 0, len(report.Converted)+len(report.Failed))
	for _, r := range report.Converted {
		rows = append(rows, []string{"converted", r.Source, r.Output})
	}
	for _, r := range report.Failed {
		rows = append(rows, []string{"failed", r.Source, errText(r.Err)})
	}
	return rows
}

func writeConvertReport(out io.Writer, report *convert.Report) {
	if len(report.Converted)+len(report.Failed) == 0 {
		fmt.Fprintln(out, "No Markdown files to convert.")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Source", "Output / Error"}, convertRows(report), nil))
}
