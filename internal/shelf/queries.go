package shelf

import (
	"context"
	"sort"
	"time"

	"github.com/starford/localshelf/internal/index"
	"github.com/starford/localshelf/internal/journal"
	"github.com/starford/localshelf/internal/models"
	"github.com/starford/localshelf/internal/parser"
	"github.com/starford/localshelf/internal/relocate"
)

// ListPages returns the pages stored under <root>/pages, sorted by path.
func (s *Service) ListPages(_ context.Context) ([]models.PageMetadata, error) {
	metas, err := s.store.List(relocate.PagesDir)
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Path < metas[j].Path })
	return metas, nil
}

// ReadPage returns the raw content of a knowledge base file.
func (s *Service) ReadPage(_ context.Context, path string) ([]byte, error) {
	return s.store.Read(path)
}

// Search delegates text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	return s.db.Search(query, limit)
}

// Backlinks returns the files linking to name, which may be a stem or a path.
func (s *Service) Backlinks(_ context.Context, name string) ([]string, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	return s.db.Backlinks(parser.Stem(name))
}

// History returns the most recent relocations, newest first.
func (s *Service) History(_ context.Context, limit int) ([]models.Relocation, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	return s.db.History(limit)
}

// ReadJournal returns the entries recorded on day.
func (s *Service) ReadJournal(_ context.Context, day time.Time) ([]journal.Entry, error) {
	return journal.ReadEntries(journal.Path(s.root, day))
}

// Today returns the current date according to the service clock.
func (s *Service) Today() time.Time {
	return s.now()
}
