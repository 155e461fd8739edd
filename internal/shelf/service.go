// Package shelf coordinates relocation, journaling and indexing of files
// stowed into a knowledge base.
package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/checksum"
	"github.com/starford/localshelf/internal/discovery"
	"github.com/starford/localshelf/internal/index"
	"github.com/starford/localshelf/internal/journal"
	"github.com/starford/localshelf/internal/models"
	"github.com/starford/localshelf/internal/relocate"
	"github.com/starford/localshelf/internal/storage"
)

// ErrNoIndex is returned by queries that need the index when the service
// was built without one.
var ErrNoIndex = errors.New("shelf: index not configured")

// Service coordinates the relocator, journal, storage and index.
type Service struct {
	root      string
	store     storage.Provider
	db        index.PageIndex
	relocator *relocate.Relocator
	journal   *journal.Journal
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIndex enables relocation history and backlink tracking.
func WithIndex(db index.PageIndex) Option {
	return func(s *Service) { s.db = db }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the wall clock for relocation, journaling and history.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the knowledge base root if needed and returns a service for it.
func New(root string, opts ...Option) (*Service, error) {
	s := &Service{
		root:   root,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrDirectoryCreation, root, err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.root = store.Root()
	s.relocator = relocate.New(relocate.WithLogger(s.logger), relocate.WithClock(s.now))
	s.journal = journal.New(journal.WithLogger(s.logger), journal.WithClock(s.now))
	return s, nil
}

// Root returns the absolute knowledge base directory.
func (s *Service) Root() string { return s.root }

// Stow relocates sources into the knowledge base in order and journals the
// ones that moved. A failed file is reported and the batch continues. The
// journal is written once for the whole batch; a journal failure is
// returned together with the report and does not undo relocations.
func (s *Service) Stow(ctx context.Context, sources []string) (*models.StowReport, error) {
	report := &models.StowReport{}
	if len(sources) == 0 {
		return report, nil
	}

	unlock, err := s.lock()
	if err != nil {
		return report, err
	}
	defer unlock()

	report.BatchID = uuid.NewString()
	logger := s.logger.With(slog.String("batch_id", report.BatchID))

	var ctxErr error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		dest, err := s.relocator.Relocate(src, s.root)
		if err != nil {
			logger.Error("shelf: relocation failed",
				slog.String("source", src),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, models.Failure{Source: src, Err: err})
			continue
		}
		sum, err := checksum.File(dest)
		if err != nil {
			logger.Debug("shelf: checksum skipped",
				slog.String("destination", dest),
				slog.String("error", err.Error()))
		}
		logger.Info("shelf: moved", slog.String("source", src), slog.String("destination", dest))
		report.Moved = append(report.Moved, models.Relocation{
			BatchID:     report.BatchID,
			Source:      src,
			Destination: dest,
			Checksum:    sum,
			MovedAt:     s.now(),
		})
	}

	if len(report.Moved) == 0 {
		return report, ctxErr
	}

	jp, err := s.journal.Record(report.Destinations(), s.root)
	if err != nil {
		return report, fmt.Errorf("shelf: record journal: %w", err)
	}
	report.JournalPath = jp
	logger.Info("shelf: journal updated",
		slog.String("journal", jp),
		slog.Int("entries", len(report.Moved)))

	s.updateIndex(logger, report.Moved)
	return report, ctxErr
}

// StowDir stows every Markdown file directly inside dir.
func (s *Service) StowDir(ctx context.Context, dir string) (*models.StowReport, error) {
	files, err := discovery.Markdown(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("shelf: no markdown files found", slog.String("dir", dir))
	}
	return s.Stow(ctx, files)
}

// Reindex brings the index in line with the files on disk.
func (s *Service) Reindex() error {
	if s.db == nil {
		return ErrNoIndex
	}
	return index.Sync(s.db, s.store, s.logger)
}

func (s *Service) updateIndex(logger *slog.Logger, moved []models.Relocation) {
	if s.db == nil {
		return
	}
	if err := s.db.RecordRelocations(moved); err != nil {
		logger.Warn("shelf: history not recorded", slog.String("error", err.Error()))
	}
	if err := index.Sync(s.db, s.store, logger); err != nil {
		logger.Warn("shelf: index sync failed", slog.String("error", err.Error()))
	}
}
