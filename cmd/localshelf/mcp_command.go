package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

func mcpCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the knowledge base to MCP clients over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.ServeMCP(ctx, version, os.Stdin, out)
		},
	}
}
