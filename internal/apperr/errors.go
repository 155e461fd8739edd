// Package apperr defines the error categories shared by the relocation and
// journaling code. Callers wrap one of these with the offending path and the
// underlying cause so that errors.Is works on both.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDirectoryCreation = errors.New("directory creation failed")
	ErrIntegrityCheck    = errors.New("file integrity check failed")
	ErrMove              = errors.New("move operation failed")
	ErrWrite             = errors.New("write operation failed")
	ErrFormatting        = errors.New("formatting error")
	ErrLocked            = errors.New("knowledge base is locked by another run")
)
