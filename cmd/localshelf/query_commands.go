package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/index"
	"github.com/starford/localshelf/internal/journal"
	"github.com/starford/localshelf/internal/models"
)

const dayLayout = "2006-01-02"

func journalCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Show the files recorded in a day's journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "Day to show as YYYY-MM-DD (defaults to today)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			day, err := parseDay(cmd.String("date"), app.Shelf.Today())
			if err != nil {
				return err
			}
			entries, err := app.Shelf.ReadJournal(ctx, day)
			if errors.Is(err, apperr.ErrNotFound) {
				fmt.Fprintf(out, "No journal for %s.\n", day.Format(dayLayout))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable([]string{"Time", "Page"}, journalRows(entries), nil))
			return nil
		},
	}
}

// parseDay reads a YYYY-MM-DD date in local time. An empty value means today.
func parseDay(value string, today time.Time) (time.Time, error) {
	if value == "" {
		return today, nil
	}
	day, err := time.ParseInLocation(dayLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", apperr.ErrFormatting, value)
	}
	return day, nil
}

func journalRows(entries []journal.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.TimeOfDay, e.Stem})
	}
	return rows
}

func historyCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent relocations, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			moves, err := app.Shelf.History(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(moves) == 0 {
				fmt.Fprintln(out, "No relocations recorded.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Moved At", "Batch", "Source", "Destination"},
				historyRows(moves),
				nil,
			))
			return nil
		},
	}
}

func historyRows(moves []models.Relocation) [][]string {
	rows := make([][]string, 0, len(moves))
	for _, m := range moves {
		rows = append(rows, []string{
			m.MovedAt.Format("2006-01-02 15:04"),
			shortID(m.BatchID),
			m.Source,
			m.Destination,
		})
	}
	return rows
}

func searchCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search page titles, bodies and tags",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return errors.New("search: QUERY is required")
			}
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.Shelf.Search(ctx, query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(out, "No pages match %q.\n", query)
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Path", "Title"}, searchRows(results), nil))
			return nil
		},
	}
}

func searchRows(results []index.SearchResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Path, r.Title})
	}
	return rows
}
