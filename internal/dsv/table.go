package dsv

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/maruel/bookshelf/internal/books"
)

// Table handles storage and in-memory caching for a single book table in a
// delimited file.
//
// The file is rewritten whole on every change; the in-memory rows are only
// swapped once the write succeeded.
type Table struct {
	path  string
	comma rune
	mu    sync.RWMutex

	rows []books.Book
}

// NewTable creates a new Table and loads all data from the file. A missing
// or empty file is an empty table.
func NewTable(path string, comma rune) (*Table, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, books.IOError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	t := &Table{
		path:  path,
		comma: comma,
	}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the backing file.
func (t *Table) Path() string {
	return t.path
}

// Load re-reads the file. On failure the previous rows are kept.
func (t *Table) Load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.set([]books.Book{})
			return nil
		}
		return books.IOError(fmt.Sprintf("failed to open table file %s", t.path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		t.set([]books.Book{})
		return nil
	}
	rows, err := Decode(bytes.NewReader(data), t.comma)
	if err != nil {
		if errors.Is(err, books.ErrSchemaMismatch) {
			return err
		}
		return books.IOError(fmt.Sprintf("failed to parse table file %s", t.path), err)
	}
	t.set(rows)
	return nil
}

func (t *Table) set(rows []books.Book) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// All returns a copy of all rows.
func (t *Table) All() []books.Book {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rows)
}

// Replace replaces all rows with the provided slice and persists it.
func (t *Table) Replace(rows []books.Book) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.replaceLocked(rows)
}

// Modify runs fn on a copy of the rows and persists what it returns, holding
// the write lock for the whole read-modify-write. When fn or the write fails,
// the table is unchanged.
func (t *Table) Modify(fn func(rows []books.Book) ([]books.Book, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, err := fn(slices.Clone(t.rows))
	if err != nil {
		return err
	}
	return t.replaceLocked(rows)
}

func (t *Table) replaceLocked(rows []books.Book) error {
	if err := WriteFile(t.path, t.comma, rows); err != nil {
		return err
	}
	t.rows = rows
	return nil
}
