package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/books/csvstore"
	"github.com/maruel/bookshelf/internal/books/tsvstore"
	"github.com/maruel/bookshelf/internal/dsv"
)

var catalog = []books.Book{
	{ISBN: "1", Title: "Dune", Author: "Herbert", Signature: "SF-1", Keywords: "sf, desert"},
	{ISBN: "2", Title: "Emma", Author: "Austen", Signature: "CL-1", Keywords: "classic"},
	{ISBN: "3", Title: "Anathem", Author: "Stephenson", Signature: "SF-2", Keywords: "sf, monastery"},
	{ISBN: "2", Title: "Emma (reprint)", Author: "Austen", Signature: "", Keywords: "classic"},
}

func newManager(t *testing.T) (*Manager, *csvstore.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.csv")
	require.NoError(t, dsv.WriteFile(path, dsv.Semicolon, catalog))
	store, err := csvstore.New(path)
	require.NoError(t, err)
	m, err := NewManager(store)
	require.NoError(t, err)
	return m, store
}

func titles(rows []books.Book) []string {
	out := make([]string, len(rows))
	for i, b := range rows {
		out[i] = b.Title
	}
	return out
}

func TestFilterAndStatus(t *testing.T) {
	m, _ := newManager(t)
	assert.Equal(t, "Total: 4 records", m.Status())
	assert.False(t, m.Filtered())

	require.NoError(t, m.ApplyFilter(books.Criteria{Keywords: "sf"}))
	assert.True(t, m.Filtered())
	assert.Equal(t, []string{"Dune", "Anathem"}, titles(m.Current()))
	assert.Equal(t, "Total: 4 | Filtered: 2 records", m.Status())

	require.NoError(t, m.ClearFilter())
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, "Total: 4 records", m.Status())

	// An empty filter is the same as clearing.
	require.NoError(t, m.ApplyFilter(books.Criteria{Keywords: " , "}))
	assert.False(t, m.Filtered())
}

func TestSort(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.SortBy("title"))
	assert.Equal(t, []string{"Anathem", "Dune", "Emma", "Emma (reprint)"}, titles(m.Current()))
	assert.Equal(t, "▲", m.Sorter().Indicator(books.ColumnIndex(books.ColTitle)))

	require.NoError(t, m.SortBy("Title"))
	assert.Equal(t, []string{"Emma (reprint)", "Emma", "Dune", "Anathem"}, titles(m.Current()))

	assert.Error(t, m.SortBy("Pages"))
}

func TestSelectedAndCopy(t *testing.T) {
	m, _ := newManager(t)
	rows, err := m.Selected([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anathem", "Dune"}, titles(rows))

	_, err = m.Selected([]int{4})
	require.ErrorIs(t, err, books.ErrInvalidIndex)

	out, err := m.CopyRows([]int{1})
	require.NoError(t, err)
	assert.Equal(t, "2\tEmma\tAusten\t\t\tCL-1\t\tclassic", out)
}

func TestDeleteDisplayed(t *testing.T) {
	m, store := newManager(t)
	require.NoError(t, m.ApplyFilter(books.Criteria{Author: "austen"}))
	require.NoError(t, m.SortBy("title"))
	require.NoError(t, m.SortBy("title"))
	// Displayed: "Emma (reprint)", "Emma". Both carry ISBN 2.
	n, err := m.DeleteDisplayed([]int{0})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Emma", "Anathem"}, titles(all))
	// The filter survives the refresh.
	assert.Equal(t, []string{"Emma"}, titles(m.Current()))
	assert.Equal(t, "Total: 3 | Filtered: 1 records", m.Status())
}

func TestDeleteDisplayedMany(t *testing.T) {
	m, store := newManager(t)
	n, err := m.DeleteDisplayed([]int{0, 3, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"Anathem"}, titles(all))
}

func TestDeleteDisplayedRepeatedPosition(t *testing.T) {
	m, store := newManager(t)
	require.NoError(t, m.ApplyFilter(books.Criteria{ISBN: "2"}))
	// Displayed: "Emma", "Emma (reprint)". Both carry ISBN 2.
	n, err := m.DeleteDisplayed([]int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Anathem", "Emma (reprint)"}, titles(all))
}

func TestDeleteDisplayedStaleRow(t *testing.T) {
	m, store := newManager(t)
	edited := catalog[1]
	edited.Title = "Emma, annotated"
	require.NoError(t, store.Update("2", edited))
	// The displayed row 1 is still the old "Emma". Its ISBN also matches the
	// reprint, which must not be deleted in its place.
	_, err := m.DeleteDisplayed([]int{1})
	require.ErrorIs(t, err, books.ErrRecordNotFound)
	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Emma, annotated", "Anathem", "Emma (reprint)"}, titles(all))
}

func TestAddClearsFilter(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.ApplyFilter(books.Criteria{Keywords: "sf"}))
	require.NoError(t, m.Add(books.Book{ISBN: "4", Title: "Persuasion", Signature: "CL-2"}))
	assert.False(t, m.Filtered())
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, "Persuasion", m.Current()[4].Title)
}

func TestDeleteDisplayedInvalid(t *testing.T) {
	m, store := newManager(t)
	_, err := m.DeleteDisplayed([]int{0, 9})
	require.ErrorIs(t, err, books.ErrInvalidIndex)
	assert.Equal(t, 4, store.Len())
}

func TestEditDisplayed(t *testing.T) {
	m, store := newManager(t)
	require.NoError(t, m.SortBy("title"))
	row, err := m.Row(1)
	require.NoError(t, err)
	require.Equal(t, "Dune", row.Title)

	row.ISBN = "1-new"
	row.Title = "Dune Messiah"
	require.NoError(t, m.EditDisplayed(1, row))
	all, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, row, all[0])
	assert.Len(t, all, 4)

	edit := all[2]
	edit.Signature = "SF-1"
	err = m.EditDisplayed(2, edit)
	require.ErrorIs(t, err, books.ErrDuplicateSignature)
}

func TestMergeAndReplace(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.ApplyFilter(books.Criteria{Title: "dune"}))

	src := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, dsv.WriteFile(src, dsv.Semicolon, []books.Book{
		{ISBN: "9", Title: "Neuromancer", Signature: "SF-3"},
		{ISBN: "1", Title: "Dune", Signature: "SF-1"},
	}))
	conflicts, err := m.Conflicts(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"SF-1"}, conflicts)

	imported, skipped, err := m.Merge(src)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)
	assert.False(t, m.Filtered())
	assert.Equal(t, 5, m.Len())

	require.NoError(t, m.Replace(src))
	assert.Equal(t, "Total: 2 records", m.Status())
}

func TestExport(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.ApplyFilter(books.Criteria{Signature: "sf"}))
	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, m.Export(out))
	got, err := dsv.ReadFile(out, dsv.Semicolon)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Anathem"}, titles(got))

	require.NoError(t, m.ApplyFilter(books.Criteria{Signature: "nothing"}))
	require.ErrorIs(t, m.Export(out), books.ErrEmptyExport)
}

func TestViewerRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.tsv")
	require.NoError(t, dsv.WriteFile(path, dsv.Tab, catalog[:2]))
	store, err := tsvstore.New(path)
	require.NoError(t, err)
	s, err := NewViewer(store)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	require.NoError(t, dsv.WriteFile(path, dsv.Tab, catalog))
	require.NoError(t, s.Refresh())
	assert.Equal(t, 4, s.Len())

	require.NoError(t, s.ApplyFilter(books.Criteria{Title: "emma"}))
	assert.Equal(t, 2, s.Len())

	// While filtered, file changes are not picked up.
	require.NoError(t, dsv.WriteFile(path, dsv.Tab, catalog[:1]))
	require.NoError(t, s.Refresh())
	assert.Equal(t, []string{"Emma", "Emma (reprint)"}, titles(s.Current()))
	assert.Equal(t, 4, s.Total())

	require.NoError(t, s.ClearFilter())
	require.NoError(t, s.Refresh())
	assert.Equal(t, []string{"Dune"}, titles(s.Current()))
}

func TestManagerUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.csv")
	store, err := csvstore.New(path)
	require.NoError(t, err)
	m, err := NewManager(readOnly{store})
	require.NoError(t, err)
	_, err = m.Conflicts(path)
	require.ErrorIs(t, err, books.ErrUnsupported)
	require.ErrorIs(t, m.Replace(path), books.ErrUnsupported)
}

// readOnly hides the optional capabilities of a store.
type readOnly struct {
	books.Store
}
