// Package discovery finds Markdown files waiting to be stowed.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Markdown returns the absolute paths of the regular .md files directly
// inside dir, sorted by name. Symlinks to regular files are included. A missing dir yields an empty list.
func Markdown(dir string) ([]string, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("discovery: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discovery: %s exists but is not a directory", dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve %s: %w", dir, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("discovery: read %s: %w", abs, err)
	}

	var files []string
	for _, e := range entries {
		path := filepath.Join(abs, e.Name())
		if !isRegular(path, e) {
			continue
		}
		files = append(files, path)
	}
	return FilterMarkdown(files), nil
}

// isRegular reports whether e is a regular file, following symlinks.
func isRegular(path string, e os.DirEntry) bool {
	if e.Type()&os.ModeSymlink == 0 {
		return e.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FilterMarkdown keeps paths whose extension is .md, ignoring case, and
// returns them sorted.
func FilterMarkdown(paths []string) []string {
	var out []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".md") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path, nil
	}
	if rest != "" && rest[0] != '/' && rest[0] != filepath.Separator {
		// ~user forms are left alone.
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("discovery: could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimLeft(rest, `/\`)), nil
}
