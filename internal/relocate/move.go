package relocate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/localshelf/internal/apperr"
)

// ErrSourceRetained reports a verified copy whose source could not be
// removed. The file now exists at both paths.
var ErrSourceRetained = fmt.Errorf("%w: source file retained after copy", apperr.ErrMove)

// move renames source to dest, falling back to copy, verify, delete.
func (r *Relocator) move(source, dest string) error {
	renameErr := r.rename(source, dest)
	if renameErr == nil {
		return nil
	}
	r.logger.Debug("relocate: rename failed, copying instead",
		slog.String("source", source),
		slog.String("destination", dest),
		slog.String("error", renameErr.Error()))

	if _, err := r.copy(source, dest); err != nil {
		return fmt.Errorf("%w: copy %s to %s: %w", apperr.ErrMove, source, dest, err)
	}

	if err := verifySize(source, dest); err != nil {
		_ = os.Remove(dest)
		return err
	}

	if err := r.remove(source); err != nil {
		r.logger.Warn("relocate: source left behind after verified copy",
			slog.String("source", source),
			slog.String("destination", dest),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s (copy at %s): %w", ErrSourceRetained, source, dest, err)
	}
	return nil
}

// verifySize compares the sizes of source and dest.
func verifySize(source, dest string) error {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("%w: stat source %s: %w", apperr.ErrIntegrityCheck, source, err)
	}
	dstInfo, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("%w: stat destination %s: %w", apperr.ErrIntegrityCheck, dest, err)
	}
	if srcInfo.Size() != dstInfo.Size() {
		return fmt.Errorf("%w: file size mismatch: source %d bytes, destination %d bytes",
			apperr.ErrIntegrityCheck, srcInfo.Size(), dstInfo.Size())
	}
	return nil
}

// copyFile streams src into a newly created dst, keeping the source mode.
// dst must not exist; a partially written dst is removed on failure.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	success := false
	defer func() {
		if !success {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	written, err := io.Copy(out, in)
	if err != nil {
		return written, err
	}
	if err := out.Sync(); err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, err
	}
	success = true
	return written, nil
}

// IsRetained reports whether err is a source-retained failure.
func IsRetained(err error) bool {
	return errors.Is(err, ErrSourceRetained)
}
