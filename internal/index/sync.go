package index

import (
	"log/slog"

	"github.com/starford/localshelf/internal/parser"
	"github.com/starford/localshelf/internal/storage"
)

// Sync walks the knowledge base and brings the index up to date:
//   - new/changed pages and journals are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Journal entries link to page stems, so syncing journals is what turns a
// relocation into a backlink of the relocated page.
func Sync(db PageIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res := parser.Parse(m.Path, data)
		row := PageRow{
			Path:      m.Path,
			Title:     res.Title,
			Checksum:  m.Checksum,
			Tags:      res.Tags,
			UpdatedAt: m.UpdatedAt,
		}
		if err := db.UpsertPage(row, res.Body, res.Links); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeletePage(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}
