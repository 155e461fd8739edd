// Package convert turns Markdown files into other document formats with pandoc.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/discovery"
)

// Result is the outcome of converting one file.
type Result struct {
	Source string
	Output string
	Err    error
}

// Report lists converted and failed files, each in source-name order.
type Report struct {
	Converted []Result
	Failed    []Result
}

// Converter runs pandoc over the Markdown files of a directory.
type Converter struct {
	pandoc  string
	format  string
	workers int
	logger  *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the converter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWorkers bounds how many pandoc processes run at once.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New returns a Converter that invokes the pandoc binary to produce format
// (for example "epub" or "docx").
func New(pandoc, format string, opts ...Option) *Converter {
	c := &Converter{
		pandoc:  pandoc,
		format:  strings.TrimPrefix(format, "."),
		workers: 4,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports an error when the pandoc binary cannot be found.
func (c *Converter) Available() error {
	if _, err := exec.LookPath(c.pandoc); err != nil {
		return fmt.Errorf("convert: %s not found: %w", c.pandoc, err)
	}
	return nil
}

// Convert writes <stem>.<format> next to every Markdown file in dir. A file
// that fails to convert is reported without stopping the others.
func (c *Converter) Convert(ctx context.Context, dir string) (*Report, error) {
	expanded, err := discovery.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: Directory %s does not exist", apperr.ErrNotFound, dir)
	}
	files, err := discovery.Markdown(expanded)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, src := range files {
		g.Go(func() error {
			out := outputPath(src, c.format)
			err := c.run(ctx, src, out)
			results[i] = Result{Source: src, Output: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{}
	for _, r := range results {
		if r.Err != nil {
			c.logger.Warn("convert: failed",
				slog.String("source", r.Source),
				slog.String("error", r.Err.Error()))
			report.Failed = append(report.Failed, r)
			continue
		}
		c.logger.Debug("convert: wrote", slog.String("output", r.Output))
		report.Converted = append(report.Converted, r)
	}
	return report, ctx.Err()
}

func (c *Converter) run(ctx context.Context, src, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, c.pandoc, src, "-o", out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", c.pandoc, err)
		}
		return fmt.Errorf("%s: %w: %s", c.pandoc, err, msg)
	}
	return nil
}

func outputPath(src, format string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "." + format
}
