package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/starford/localshelf/internal"
	"github.com/starford/localshelf/internal/discovery"
)

func configPath(cmd *cli.Command) (string, error) {
	if p := cmd.String("config"); p != "" {
		return discovery.ExpandHome(p)
	}
	return internal.ConfigFilePath()
}

// loadConfig prepares the config directory and loads the configuration the
// command should run with, returning it with the file it came from.
func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	if err := internal.Initialize(slog.Default()); err != nil {
		return nil, "", fmt.Errorf("init config: %w", err)
	}
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, path, nil
}

func openApp(cmd *cli.Command) (*internal.App, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(internal.WithConfig(cfg))
}

// targetPath returns the first argument with ~ expanded, or the inbox when
// no argument was given.
func targetPath(cmd *cli.Command, cfg *internal.Config) (string, error) {
	if arg := cmd.Args().First(); arg != "" {
		return discovery.ExpandHome(arg)
	}
	return cfg.Shelf.Inbox()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
