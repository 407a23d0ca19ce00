// Package tsvstore is the read-only backend of the Books Viewer: a
// tab-separated file re-read on demand.
package tsvstore

import (
	"log/slog"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/dsv"
)

// Store serves a tab-separated catalog without modifying it.
type Store struct {
	table *dsv.Table
}

var _ books.Reader = (*Store)(nil)

// New loads the file at path. A missing file is an empty catalog.
func New(path string) (*Store, error) {
	table, err := dsv.NewTable(path, dsv.Tab)
	if err != nil {
		return nil, err
	}
	return &Store{table: table}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.table.Path()
}

// All returns every record in file order.
func (s *Store) All() ([]books.Book, error) {
	return s.table.All(), nil
}

// Filter returns the records matching c in file order.
func (s *Store) Filter(c books.Criteria) ([]books.Book, error) {
	return books.FilterBooks(s.table.All(), c), nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	return s.table.Len()
}

// Reload re-reads the file. On failure the previous snapshot is kept.
func (s *Store) Reload() error {
	if err := s.table.Load(); err != nil {
		return err
	}
	slog.Debug("Reloaded catalog", "path", s.table.Path(), "records", s.table.Len())
	return nil
}

// Export writes rows as a tab-separated file.
func (s *Store) Export(path string, rows []books.Book) error {
	if len(rows) == 0 {
		return books.EmptyExport()
	}
	return dsv.WriteFile(path, dsv.Tab, rows)
}
