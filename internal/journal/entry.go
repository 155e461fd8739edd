package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/localshelf/internal/apperr"
)

var entryRe = regexp.MustCompile(`^- \*\*(\d{2}:\d{2})\*\* \[\[(.+)\]\]$`)

// Entry is one journal line: the time a file was recorded and the name it
// was recorded under.
type Entry struct {
	TimeOfDay string // HH:MM
	Stem      string // destination file name without extension
}

// NewEntry builds the entry for a relocated file at time at. The stem comes
// from the destination name, which may differ from the original after
// collision handling.
func NewEntry(path string, at time.Time) (Entry, error) {
	base := filepath.Base(path)
	if path == "" || base == "." || base == string(filepath.Separator) {
		return Entry{}, fmt.Errorf("%w: invalid filename: %q", apperr.ErrFormatting, path)
	}
	if !utf8.ValidString(base) {
		return Entry{}, fmt.Errorf("%w: invalid filename encoding: %q", apperr.ErrFormatting, path)
	}
	return Entry{
		TimeOfDay: at.Format("15:04"),
		Stem:      stem(base),
	}, nil
}

// Line formats the entry as "- **HH:MM** [[stem]]".
func (e Entry) Line() string {
	return fmt.Sprintf("- **%s** [[%s]]", e.TimeOfDay, e.Stem)
}

// stem strips the extension. Dot files keep their whole name.
func stem(base string) string {
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// ReadEntries parses the entry lines of a journal file in order. Lines that
// are not entries (headings, notes added by hand) are skipped.
func ReadEntries(file string) ([]Entry, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, file)
		}
		return nil, fmt.Errorf("journal: open %s: %w", file, err)
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := entryRe.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		out = append(out, Entry{TimeOfDay: m[1], Stem: m[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: read %s: %w", file, err)
	}
	return out, nil
}
