// Package models defines the domain types for Local Shelf.
package models

import "time"

// Page represents a parsed Markdown file in the knowledge base.
type Page struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Links     []string  `json:"links,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageMetadata is a lightweight representation returned by list operations.
type PageMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Relocation records one file moved into the knowledge base.
type Relocation struct {
	BatchID     string    `json:"batch_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Checksum    string    `json:"checksum,omitempty"`
	MovedAt     time.Time `json:"moved_at"`
}

// Failure is a source file that could not be relocated.
type Failure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

// StowReport summarises one stow batch.
type StowReport struct {
	BatchID     string       `json:"batch_id"`
	Moved       []Relocation `json:"moved"`
	Failed      []Failure    `json:"failed,omitempty"`
	JournalPath string       `json:"journal_path,omitempty"`
}

// Destinations returns the destination paths of moved files in batch order.
func (r *StowReport) Destinations() []string {
	out := make([]string, 0, len(r.Moved))
	for _, m := range r.Moved {
		out = append(out, m.Destination)
	}
	return out
}

// HasFailures reports whether any file in the batch failed.
func (r *StowReport) HasFailures() bool {
	return len(r.Failed) > 0
}
