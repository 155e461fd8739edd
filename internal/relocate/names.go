package relocate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/localshelf/internal/apperr"
)

// MaxAttempts bounds the numeric disambiguator tried after the token name collides.
const MaxAttempts = 1000

// ErrNamesExhausted is returned when no free name was found within MaxAttempts.
var ErrNamesExhausted = fmt.Errorf("%w: unable to generate unique filename after %d attempts", apperr.ErrMove, MaxAttempts)

// ResolveDestination picks a free path for name inside dir:
//
//	dir/name
//	dir/<stem>_<token><ext>
//	dir/<stem>_<token>_<n><ext>   n = 1..MaxAttempts
//
// The token is derived from the current time, so names are unique across
// runs without depending on content.
func (r *Relocator) ResolveDestination(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	taken, err := exists(candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: invalid filename encoding: %q", apperr.ErrFormatting, name)
	}
	stem, ext := SplitName(name)
	token := timeToken(r.now().UnixNano())

	for attempt := 0; attempt <= MaxAttempts; attempt++ {
		var next string
		if attempt == 0 {
			next = fmt.Sprintf("%s_%s%s", stem, token, ext)
		} else {
			next = fmt.Sprintf("%s_%s_%d%s", stem, token, attempt, ext)
		}
		candidate = filepath.Join(dir, next)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNamesExhausted, filepath.Join(dir, name))
}

// SplitName splits a file name on its last dot. The extension keeps the dot;
// a name without a dot has an empty extension.
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// timeToken hashes a nanosecond timestamp into a fixed-width hex token.
func timeToken(nanos int64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(nanos))
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return fmt.Sprintf("%016x", h.Sum64())
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %w", apperr.ErrMove, path, err)
}
