// Package csvstore is the text-file backend of the record store: a
// semicolon-separated file rewritten whole on every mutation.
package csvstore

import (
	"log/slog"
	"slices"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/dsv"
)

// Store keeps the catalog in a semicolon-separated file.
type Store struct {
	table *dsv.Table
}

var (
	_ books.Store           = (*Store)(nil)
	_ books.ConflictChecker = (*Store)(nil)
	_ books.Replacer        = (*Store)(nil)
)

// New opens the file at path, creating its directory if needed. A missing
// file is an empty catalog.
func New(path string) (*Store, error) {
	table, err := dsv.NewTable(path, dsv.Semicolon)
	if err != nil {
		return nil, err
	}
	slog.Debug("Opened catalog", "path", path, "records", table.Len())
	return &Store{table: table}, nil
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

// Reload re-reads the file.
func (s *Store) Reload() error {
	return s.table.Load()
}

// Add appends b and rewrites the file.
func (s *Store) Add(b books.Book) error {
	b = b.Normalize()
	err := s.table.Modify(func(rows []books.Book) ([]books.Book, error) {
		if err := books.CheckSignature(rows, b, -1); err != nil {
			return nil, err
		}
		return append(rows, b), nil
	})
	if err != nil {
		return err
	}
	slog.Info("Added book", "isbn", b.ISBN, "signature", b.Signature)
	return nil
}

// Update replaces the first record whose ISBN matches lookupISBN.
func (s *Store) Update(lookupISBN string, b books.Book) error {
	b = b.Normalize()
	err := s.table.Modify(func(rows []books.Book) ([]books.Book, error) {
		pos := books.IndexOfISBN(rows, lookupISBN)
		if pos < 0 {
			return nil, books.RecordNotFound(lookupISBN)
		}
		return updateAt(rows, pos, b)
	})
	if err != nil {
		return err
	}
	slog.Info("Updated book", "lookup", lookupISBN, "isbn", b.ISBN)
	return nil
}

// updateAt replaces the row at pos after checking Signature uniqueness
// against every other row.
func updateAt(rows []books.Book, pos int, b books.Book) ([]books.Book, error) {
	if err := books.CheckSignature(rows, b, pos); err != nil {
		return nil, err
	}
	rows[pos] = b
	return rows, nil
}

// Delete removes the record at position pos of All().
func (s *Store) Delete(pos int) error {
	var removed books.Book
	err := s.table.Modify(func(rows []books.Book) ([]books.Book, error) {
		if pos < 0 || pos >= len(rows) {
			return nil, books.InvalidIndex(pos, len(rows))
		}
		removed = rows[pos]
		return slices.Delete(rows, pos, pos+1), nil
	})
	if err != nil {
		return err
	}
	slog.Info("Deleted book", "pos", pos, "isbn", removed.ISBN)
	return nil
}

// CheckImportConflicts returns the Signatures shared by the catalog and the
// semicolon-separated source at path.
func (s *Store) CheckImportConflicts(path string) ([]string, error) {
	src, err := dsv.ReadFile(path, dsv.Semicolon)
	if err != nil {
		return nil, err
	}
	return books.Conflicts(s.table.All(), src), nil
}

// ImportMerge appends the source records whose Signature is absent or new.
func (s *Store) ImportMerge(path string) (imported, skipped int, err error) {
	src, err := dsv.ReadFile(path, dsv.Semicolon)
	if err != nil {
		return 0, 0, err
	}
	err = s.table.Modify(func(rows []books.Book) ([]books.Book, error) {
		var add []books.Book
		add, skipped = books.Merge(rows, src)
		imported = len(add)
		return append(rows, add...), nil
	})
	if err != nil {
		return 0, 0, err
	}
	slog.Info("Merged import", "path", path, "imported", imported, "skipped", skipped)
	return imported, skipped, nil
}

// ImportReplace replaces the whole catalog with the source at path.
func (s *Store) ImportReplace(path string) error {
	src, err := dsv.ReadFile(path, dsv.Semicolon)
	if err != nil {
		return err
	}
	if err := s.table.Replace(src); err != nil {
		return err
	}
	slog.Info("Replaced catalog", "path", path, "records", len(src))
	return nil
}

// Export writes rows as a semicolon-separated file.
func (s *Store) Export(path string, rows []books.Book) error {
	if len(rows) == 0 {
		return books.EmptyExport()
	}
	return dsv.WriteFile(path, dsv.Semicolon, rows)
}
