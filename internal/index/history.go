package index

import (
	"fmt"

	"github.com/starford/localshelf/internal/models"
)

const defaultHistoryLimit = 50

// RecordRelocations appends moves to the relocation history in one transaction.
func (db *DB) RecordRelocations(moves []models.Relocation) error {
	if len(moves) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT INTO relocations (batch_id, source, destination, checksum, moved_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare relocation insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range moves {
		if _, err := stmt.Exec(m.BatchID, m.Source, m.Destination, m.Checksum, m.MovedAt.UTC()); err != nil {
			return fmt.Errorf("index: insert relocation: %w", err)
		}
	}
	return tx.Commit()
}

// History returns the most recent relocations, newest first.
func (db *DB) History(limit int) ([]models.Relocation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := db.conn.Query(`
		SELECT batch_id, source, destination, checksum, moved_at
		FROM relocations
		ORDER BY moved_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: history: %w", err)
	}
	defer rows.Close()

	var out []models.Relocation
	for rows.Next() {
		var r models.Relocation
		if err := rows.Scan(&r.BatchID, &r.Source, &r.Destination, &r.Checksum, &r.MovedAt); err != nil {
			return nil, err
		}
		r.MovedAt = r.MovedAt.Local()
		out = append(out, r)
	}
	return out, rows.Err()
}
