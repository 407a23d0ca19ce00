package tsvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/dsv"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.tsv")
	rows := []books.Book{
		{ISBN: "1", Title: "Alpha", Keywords: "x, y"},
		{ISBN: "2", Title: "Beta", Keywords: "y"},
	}
	require.NoError(t, dsv.WriteFile(path, dsv.Tab, rows))

	s, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	assert.Equal(t, 2, s.Len())

	got, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	got, err = s.Filter(books.Criteria{Keywords: "Y, X"})
	require.NoError(t, err)
	assert.Equal(t, rows[:1], got)
}

func TestMissingFile(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "books.tsv"))
	require.NoError(t, err)
	got, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.tsv")
	require.NoError(t, dsv.WriteFile(path, dsv.Tab, []books.Book{{ISBN: "1"}}))
	s, err := New(path)
	require.NoError(t, err)

	require.NoError(t, dsv.WriteFile(path, dsv.Tab, []books.Book{{ISBN: "1"}, {ISBN: "2"}}))
	require.NoError(t, s.Reload())
	assert.Equal(t, 2, s.Len())

	// A broken file keeps the previous snapshot.
	require.NoError(t, os.WriteFile(path, []byte("ISBN\tTitle\n3\tThree\n"), 0o600))
	err = s.Reload()
	require.ErrorIs(t, err, books.ErrSchemaMismatch)
	assert.Equal(t, 2, s.Len())
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "books.tsv"))
	require.NoError(t, err)

	err = s.Export(filepath.Join(dir, "out.tsv"), nil)
	require.ErrorIs(t, err, books.ErrEmptyExport)

	rows := []books.Book{{ISBN: "1", Title: "a\tb"}}
	out := filepath.Join(dir, "out.tsv")
	require.NoError(t, s.Export(out, rows))
	got, err := dsv.ReadFile(out, dsv.Tab)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
