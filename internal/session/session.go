// Package session holds the transient state of a front-end over a record
// store: the active filter, the displayed rows and the sort toggle.
//
// The displayed rows are a snapshot. Every mutation goes through the store
// and is followed by a re-fetch.
package session

import (
	"fmt"
	"strings"

	"github.com/maruel/bookshelf/internal/books"
)

// Session is the displayed view of a store.
type Session struct {
	store   books.Reader
	viewer  bool
	filter  books.Criteria
	current []books.Book
	total   int
	sorter  books.Sorter
}

// New returns a session showing every record of store.
func New(store books.Reader) (*Session, error) {
	s := &Session{store: store}
	if err := s.fetch(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewViewer returns a session whose Refresh re-reads the backing file, except
// while a filter is active so the filtered view is not replaced.
func NewViewer(store books.Reader) (*Session, error) {
	s, err := New(store)
	if err != nil {
		return nil, err
	}
	s.viewer = true
	return s, nil
}

// fetch replaces the displayed rows with the store content under the active
// filter.
func (s *Session) fetch() error {
	all, err := s.store.All()
	if err != nil {
		return err
	}
	rows := all
	if s.Filtered() {
		if rows, err = s.store.Filter(s.filter); err != nil {
			return err
		}
	}
	s.current = rows
	s.total = len(all)
	return nil
}

// Refresh re-fetches the displayed rows. A viewer session reloads the file
// first, and does nothing while filtered.
func (s *Session) Refresh() error {
	if s.viewer {
		if s.Filtered() {
			return nil
		}
		if err := s.store.Reload(); err != nil {
			return err
		}
	}
	return s.fetch()
}

// Current returns a copy of the displayed rows.
func (s *Session) Current() []books.Book {
	out := make([]books.Book, len(s.current))
	copy(out, s.current)
	return out
}

// Len returns the number of displayed rows.
func (s *Session) Len() int {
	return len(s.current)
}

// Total returns the number of records in the store at the last fetch.
func (s *Session) Total() int {
	return s.total
}

// Criteria returns the active filter.
func (s *Session) Criteria() books.Criteria {
	return s.filter
}

// Filtered reports whether a filter is active.
func (s *Session) Filtered() bool {
	return !s.filter.IsZero()
}

// Sorter returns the sort toggle state, for header indicators.
func (s *Session) Sorter() *books.Sorter {
	return &s.sorter
}

// ApplyFilter displays the records matching c. Surrounding whitespace of
// each criterion is ignored.
func (s *Session) ApplyFilter(c books.Criteria) error {
	c = c.Trim()
	if c.IsZero() {
		return s.ClearFilter()
	}
	prev := s.filter
	s.filter = c
	if err := s.fetch(); err != nil {
		s.filter = prev
		return err
	}
	return nil
}

// ClearFilter displays every record.
func (s *Session) ClearFilter() error {
	prev := s.filter
	s.filter = books.Criteria{}
	if err := s.fetch(); err != nil {
		s.filter = prev
		return err
	}
	return nil
}

// Sort sorts the displayed rows on col, toggling direction when col is the
// active column.
func (s *Session) Sort(col int) {
	s.current = s.sorter.Sort(s.current, col)
}

// SortBy is Sort with a column name.
func (s *Session) SortBy(name string) error {
	col := books.ColumnIndex(name)
	if col < 0 {
		return fmt.Errorf("unknown column %q (want one of %s)", name, strings.Join(books.Columns, ", "))
	}
	s.Sort(col)
	return nil
}

// Row returns the displayed row at pos.
func (s *Session) Row(pos int) (books.Book, error) {
	if pos < 0 || pos >= len(s.current) {
		return books.Book{}, books.InvalidIndex(pos, len(s.current))
	}
	return s.current[pos], nil
}

// Selected returns the displayed rows at positions, in the given order.
func (s *Session) Selected(positions []int) ([]books.Book, error) {
	out := make([]books.Book, 0, len(positions))
	for _, pos := range positions {
		b, err := s.Row(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// CopyRows renders the displayed rows at positions as tab-joined lines.
func (s *Session) CopyRows(positions []int) (string, error) {
	rows, err := s.Selected(positions)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(rows))
	for i, b := range rows {
		lines[i] = strings.Join(b.Values(), "\t")
	}
	return strings.Join(lines, "\n"), nil
}

// Export writes the displayed rows through the store's serialization.
func (s *Session) Export(path string) error {
	return s.store.Export(path, s.current)
}

// Status is the status bar line.
func (s *Session) Status() string {
	if len(s.current) == s.total {
		return fmt.Sprintf("Total: %d records", s.total)
	}
	return fmt.Sprintf("Total: %d | Filtered: %d records", s.total, len(s.current))
}
