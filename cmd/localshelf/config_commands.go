package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/localshelf/internal"
)

func configCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and edit the configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, configRows(cfg, path), nil))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path, err := configPath(cmd)
					if err != nil {
						return err
					}
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						fmt.Fprintf(out, "Config already exists at %s\n", path)
						return nil
					}
					if err := internal.SaveConfig(internal.NewDefaultConfig(), path); err != nil {
						return err
					}
					fmt.Fprintf(out, "Wrote %s\n", path)
					return nil
				},
			},
			{
				Name:      "set-path",
				Usage:     "Point the knowledge base at PATH, creating it if needed",
				ArgsUsage: "PATH",
				Action: func(_ context.Context, cmd *cli.Command) error {
					newPath := cmd.Args().First()
					if newPath == "" {
						return errors.New("set-path: PATH is required")
					}
					cfg, path, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if err := internal.UpdateKnowledgeBasePath(cfg, newPath, path); err != nil {
						return err
					}
					fmt.Fprintf(out, "Knowledge base set to %s\n", newPath)
					return nil
				},
			},
		},
	}
}

func configRows(cfg *internal.Config, path string) [][]string {
	dbPath, err := cfg.SQLite.Resolve()
	if err != nil {
		dbPath = "(" + err.Error() + ")"
	}
	return [][]string{
		{"config_file", path},
		{"app.log_level", cfg.App.LogLevel.String()},
		{"app.log_format", cfg.App.LogFormat},
		{"shelf.knowledge_base_path", cfg.Shelf.KnowledgeBasePath},
		{"shelf.inbox_path", cfg.Shelf.InboxPath},
		{"sqlite.path", dbPath},
		{"convert.pandoc", cfg.Convert.Pandoc},
		{"convert.format", cfg.Convert.Format},
		{"convert.workers", strconv.Itoa(cfg.Convert.Workers)},
	}
}
