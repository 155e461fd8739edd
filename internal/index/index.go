package index

import "github.com/starford/localshelf/internal/models"

// PageIndex defines the interface for knowledge base indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type PageIndex interface {
	UpsertPage(p PageRow, body string, links []string) error
	DeletePage(path string) error
	AllChecksums() (map[string]string, error)
	Backlinks(stem string) ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	RecordRelocations(moves []models.Relocation) error
	History(limit int) ([]models.Relocation, error)
	Close() error
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
