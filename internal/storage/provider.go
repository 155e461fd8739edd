// Package storage defines read access to the knowledge base on disk.
package storage

import "github.com/starford/localshelf/internal/models"

// Provider is the interface for knowledge base file reads.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the root).
	List(dir string) ([]models.PageMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Root returns the absolute knowledge base directory.
	Root() string
}
