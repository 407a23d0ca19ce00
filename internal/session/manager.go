package session

import (
	"slices"

	"github.com/maruel/bookshelf/internal/books"
)

// Manager is a Session over a writable store.
type Manager struct {
	*Session
	store books.Store
}

// NewManager returns a manager session showing every record of store.
func NewManager(store books.Store) (*Manager, error) {
	s, err := New(store)
	if err != nil {
		return nil, err
	}
	return &Manager{Session: s, store: store}, nil
}

// Add adds b then shows every record, so the new one is visible.
func (m *Manager) Add(b books.Book) error {
	if err := m.store.Add(b); err != nil {
		return err
	}
	return m.ClearFilter()
}

// EditDisplayed replaces the displayed row at pos with b. The lookup uses the row's
// ISBN as displayed, before the edit.
func (m *Manager) EditDisplayed(pos int, b books.Book) error {
	row, err := m.Row(pos)
	if err != nil {
		return err
	}
	if err := m.store.Update(row.ISBN, b); err != nil {
		return err
	}
	return m.Refresh()
}

// DeleteDisplayed removes the displayed rows at positions and returns how
// many were deleted. A position given twice counts once.
//
// Each displayed row is resolved by exact content against a fresh read of the
// store, so a row changed since the last fetch is reported as not found
// instead of deleting a neighbour sharing its ISBN. Deletion runs in
// descending store position so that earlier positions stay valid.
func (m *Manager) DeleteDisplayed(positions []int) (int, error) {
	positions = slices.Clone(positions)
	slices.Sort(positions)
	positions = slices.Compact(positions)
	rows, err := m.Selected(positions)
	if err != nil {
		return 0, err
	}
	all, err := m.store.All()
	if err != nil {
		return 0, err
	}
	used := make(map[int]bool, len(rows))
	targets := make([]int, 0, len(rows))
	for _, row := range rows {
		i := resolve(all, row, used)
		if i < 0 {
			return 0, books.RecordNotFound(row.ISBN)
		}
		used[i] = true
		targets = append(targets, i)
	}
	slices.Sort(targets)
	slices.Reverse(targets)
	deleted := 0
	for _, i := range targets {
		if err := m.store.Delete(i); err != nil {
			_ = m.Refresh()
			return deleted, err
		}
		deleted++
	}
	return deleted, m.Refresh()
}

// resolve returns the first unused position of all holding row, or -1.
func resolve(all []books.Book, row books.Book, used map[int]bool) int {
	for i := range all {
		if !used[i] && all[i] == row {
			return i
		}
	}
	return -1
}

// Conflicts lists the Signatures the source at path shares with the store.
func (m *Manager) Conflicts(path string) ([]string, error) {
	cc, ok := m.store.(books.ConflictChecker)
	if !ok {
		return nil, books.Unsupported("conflict check")
	}
	return cc.CheckImportConflicts(path)
}

// Merge imports the source at path, skipping known Signatures, then shows
// every record.
func (m *Manager) Merge(path string) (imported, skipped int, err error) {
	imported, skipped, err = m.store.ImportMerge(path)
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, m.ClearFilter()
}

// Replace replaces the store content with the source at path, then shows
// every record.
func (m *Manager) Replace(path string) error {
	r, ok := m.store.(books.Replacer)
	if !ok {
		return books.Unsupported("import replace")
	}
	if err := r.ImportReplace(path); err != nil {
		return err
	}
	return m.ClearFilter()
}
