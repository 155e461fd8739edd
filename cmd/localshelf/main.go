package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func newRootCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "local_shelf",
		Usage:   "Move Markdown files into a knowledge base and journal what arrived",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "$XDG_CONFIG_HOME/local_shelf/config.yaml",
				Sources:     cli.EnvVars("LOCAL_SHELF_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			stowCommand(out),
			convertCommand(out),
			journalCommand(out),
			historyCommand(out),
			searchCommand(out),
			configCommand(out),
			mcpCommand(out),
		},
	}
}

func main() {
	if err := newRootCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
