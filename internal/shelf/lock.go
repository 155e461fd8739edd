package shelf

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/starford/localshelf/internal/apperr"
)

// LockFile is the advisory lock held in the knowledge base root while a
// batch is stowed.
const LockFile = ".local_shelf.lock"

// lock takes the knowledge base lock without waiting. A lock held by
// another run fails with apperr.ErrLocked.
func (s *Service) lock() (func(), error) {
	path := filepath.Join(s.root, LockFile)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("shelf: acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrLocked, path)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("shelf: failed to release lock",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}, nil
}
