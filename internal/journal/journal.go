// Package journal appends relocation entries to date-named Markdown files
// under <root>/journals. Journal files are append-only: existing bytes are
// never rewritten.
package journal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/localshelf/internal/apperr"
)

// Dir is the subdirectory of the knowledge base holding journal files.
const Dir = "journals"

const dateLayout = "2006_01_02"

// Journal writes entries for relocated files.
type Journal struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the journal logger.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithClock overrides the wall clock. It is read on every use, never cached.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// New returns a Journal using the local wall clock.
func New(opts ...Option) *Journal {
	j := &Journal{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Path returns <root>/journals/YYYY_MM_DD.md for day.
func Path(root string, day time.Time) string {
	return filepath.Join(root, Dir, day.Format(dateLayout)+".md")
}

// Record appends one entry per destination path to today's journal and
// returns the journal file path. The batch is written with a single append.
func (j *Journal) Record(paths []string, root string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no files provided for journal entries", apperr.ErrFormatting)
	}

	file := Path(root, j.now())
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrDirectoryCreation, dir, err)
	}

	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		entry, err := NewEntry(p, j.now())
		if err != nil {
			return "", err
		}
		lines = append(lines, entry.Line())
	}

	if err := appendLines(file, lines); err != nil {
		return "", err
	}
	j.logger.Debug("journal: appended entries",
		slog.String("journal", file),
		slog.Int("entries", len(lines)))
	return file, nil
}

// appendLines writes lines to file, starting them on a fresh line when the
// file already has content that does not end in a newline.
func appendLines(file string, lines []string) error {
	var b strings.Builder
	needsBreak, err := missingTrailingNewline(file)
	if err != nil {
		return err
	}
	if needsBreak {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteByte('\n')

	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open journal file %s: %w", apperr.ErrWrite, file, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write journal file %s: %w", apperr.ErrWrite, file, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: flush journal file %s: %w", apperr.ErrWrite, file, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close journal file %s: %w", apperr.ErrWrite, file, err)
	}
	return nil
}

// missingTrailingNewline reports whether file is non-empty and its last byte
// is not '\n'. A missing file needs no separator.
func missingTrailingNewline(file string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: open journal file %s: %w", apperr.ErrWrite, file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("%w: stat journal file %s: %w", apperr.ErrWrite, file, err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return false, fmt.Errorf("%w: read journal file %s: %w", apperr.ErrWrite, file, err)
	}
	return last[0] != '\n', nil
}

// ParseDate parses a journal file name of the exact form YYYY_MM_DD.md.
func ParseDate(name string) (time.Time, error) {
	stem, ok := strings.CutSuffix(name, ".md")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: journal filename must end with .md: %s", apperr.ErrFormatting, name)
	}
	day, err := time.Parse(dateLayout, stem)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid journal date format %q: %w", apperr.ErrFormatting, stem, err)
	}
	return day, nil
}
