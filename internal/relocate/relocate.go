// Package relocate moves files into the pages directory of a knowledge base
// without overwriting anything already there.
//
// A move is attempted as a single rename first. When that fails (usually
// because source and destination live on different volumes) the file is
// copied, the copy is verified against the source size, and only then is the
// source removed. At every point at least one intact copy of the file exists.
package relocate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/localshelf/internal/apperr"
)

// PagesDir is the subdirectory of the knowledge base that receives relocated files.
const PagesDir = "pages"

// Relocator moves single files into <root>/pages.
type Relocator struct {
	logger *slog.Logger
	now    func() time.Time

	rename func(oldpath, newpath string) error
	copy   func(src, dst string) (int64, error)
	remove func(name string) error
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithLogger sets the logger used for move diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relocator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for collision tokens.
func WithClock(now func() time.Time) Option {
	return func(r *Relocator) {
		if now != nil {
			r.now = now
		}
	}
}

// New returns a Relocator backed by the local file system.
func New(opts ...Option) *Relocator {
	r := &Relocator{
		logger: slog.Default(),
		now:    time.Now,
		rename: os.Rename,
		copy:   copyFile,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Relocate moves source into <root>/pages and returns the final path of the
// file. The destination name is the source name unless that is taken, in
// which case a unique suffix is added.
func (r *Relocator) Relocate(source, root string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperr.ErrNotFound, source)
		}
		return "", fmt.Errorf("%w: stat %s: %w", apperr.ErrMove, source, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", apperr.ErrMove, source)
	}

	dir, err := ensurePagesDir(root)
	if err != nil {
		return "", err
	}

	dest, err := r.ResolveDestination(dir, filepath.Base(source))
	if err != nil {
		return "", err
	}

	if err := r.move(source, dest); err != nil {
		return "", err
	}
	r.logger.Debug("relocate: moved",
		slog.String("source", source),
		slog.String("destination", dest))
	return dest, nil
}

// PagesPath returns <root>/pages.
func PagesPath(root string) string {
	return filepath.Join(root, PagesDir)
}

func ensurePagesDir(root string) (string, error) {
	dir := PagesPath(root)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrDirectoryCreation, dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrDirectoryCreation, abs, err)
	}
	return abs, nil
}
