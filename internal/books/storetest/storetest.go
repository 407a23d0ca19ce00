// Package storetest checks a books.Store implementation against the record
// store contract.
package storetest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/dsv"
)

// Factory returns an empty store.
type Factory func(t *testing.T) books.Store

// Run exercises every operation of books.Store. Import sources and exports
// use the comma separator.
func Run(t *testing.T, newStore Factory, comma rune) {
	t.Run("DuplicateSignature", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "First", "S1")))
		err := s.Add(book("2", "Second", "S1"))
		require.ErrorIs(t, err, books.ErrDuplicateSignature)
		assert.Len(t, all(t, s), 1)
	})

	t.Run("SignatureIsCaseSensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "First", "abc")))
		require.NoError(t, s.Add(book("2", "Second", "ABC")))
		assert.Len(t, all(t, s), 2)
	})

	t.Run("AbsentSignaturesCoexist", func(t *testing.T) {
		s := newStore(t)
		for _, sig := range []string{"", "", "  ", "\t"} {
			require.NoError(t, s.Add(book("1", "Same", sig)))
		}
		got := all(t, s)
		require.Len(t, got, 4)
		for _, b := range got {
			assert.Empty(t, b.Signature)
		}
	})

	t.Run("AllKeepsInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		want := []books.Book{book("3", "C", "S3"), book("1", "A", "S1"), book("2", "B", "S2")}
		for _, b := range want {
			require.NoError(t, s.Add(b))
		}
		assert.Equal(t, want, all(t, s))
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("111", "Old", "S1")))
		edited := books.Book{ISBN: "222", Title: "New", Author: "Someone", Publisher: "P", Year: "2001", Signature: "S1", Description: "d", Keywords: "k"}
		require.NoError(t, s.Update(" 111 ", edited))
		assert.Equal(t, []books.Book{edited}, all(t, s))
	})

	t.Run("UpdateFirstOfDuplicateISBN", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("X", "One", "")))
		require.NoError(t, s.Add(book("X", "Two", "")))
		require.NoError(t, s.Update("X", book("X", "Changed", "")))
		got := all(t, s)
		require.Len(t, got, 2)
		assert.Equal(t, "Changed", got[0].Title)
		assert.Equal(t, "Two", got[1].Title)
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		err := s.Update("404", book("404", "Missing", ""))
		require.ErrorIs(t, err, books.ErrRecordNotFound)
		assert.Equal(t, []books.Book{book("1", "One", "S1")}, all(t, s))
	})

	t.Run("UpdateDuplicateSignature", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		require.NoError(t, s.Add(book("2", "Two", "S2")))
		err := s.Update("2", book("2", "Two", "S1"))
		require.ErrorIs(t, err, books.ErrDuplicateSignature)
		// Keeping its own Signature is not a conflict.
		require.NoError(t, s.Update("1", book("1", "One again", "S1")))
		got := all(t, s)
		assert.Equal(t, "S2", got[1].Signature)
		assert.Equal(t, "One again", got[0].Title)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		require.NoError(t, s.Add(book("2", "Two", "S2")))
		require.NoError(t, s.Add(book("3", "Three", "S3")))
		require.NoError(t, s.Delete(1))
		assert.Equal(t, []books.Book{book("1", "One", "S1"), book("3", "Three", "S3")}, all(t, s))
	})

	t.Run("DeleteInvalidIndex", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		for _, pos := range []int{-1, 1, 100} {
			err := s.Delete(pos)
			require.ErrorIs(t, err, books.ErrInvalidIndex, "pos %d", pos)
		}
		assert.Len(t, all(t, s), 1)
	})

	t.Run("FilterKeywords", func(t *testing.T) {
		s := newStore(t)
		rows := []books.Book{
			{ISBN: "1", Keywords: "a"},
			{ISBN: "2", Keywords: "A, B"},
			{ISBN: "3", Keywords: "b"},
			{ISBN: "4", Keywords: "xbx, yAy"},
		}
		for _, b := range rows {
			require.NoError(t, s.Add(b))
		}
		got, err := s.Filter(books.Criteria{Keywords: "a, b"})
		require.NoError(t, err)
		assert.Equal(t, []books.Book{rows[1], rows[3]}, got)
	})

	t.Run("FilterFields", func(t *testing.T) {
		s := newStore(t)
		rows := []books.Book{
			{ISBN: "978-1", Title: "The Go Programming Language", Author: "Donovan", Publisher: "Addison-Wesley", Year: "2015"},
			{ISBN: "978-2", Title: "Go in Action", Author: "Kennedy", Year: "2015"},
			{ISBN: "978-3", Title: "Learning Python", Author: "Lutz", Publisher: "O'Reilly", Year: "2013"},
		}
		for _, b := range rows {
			require.NoError(t, s.Add(b))
		}
		got, err := s.Filter(books.Criteria{Title: "GO", Year: "2015"})
		require.NoError(t, err)
		assert.Equal(t, rows[:2], got)

		// An empty field never matches a non-empty criterion.
		got, err = s.Filter(books.Criteria{Publisher: "e"})
		require.NoError(t, err)
		assert.Equal(t, []books.Book{rows[0], rows[2]}, got)

		got, err = s.Filter(books.Criteria{})
		require.NoError(t, err)
		assert.Equal(t, rows, got)

		got, err = s.Filter(books.Criteria{Author: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ImportMerge", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		src := writeSource(t, comma, []books.Book{book("9", "Dup", "S1"), book("2", "Two", "S2")})
		imported, skipped, err := s.ImportMerge(src)
		require.NoError(t, err)
		assert.Equal(t, 1, imported)
		assert.Equal(t, 1, skipped)
		assert.Equal(t, []books.Book{book("1", "One", "S1"), book("2", "Two", "S2")}, all(t, s))
	})

	t.Run("ImportMergeDuplicatesWithinSource", func(t *testing.T) {
		s := newStore(t)
		src := writeSource(t, comma, []books.Book{
			book("1", "One", "S1"),
			book("2", "Again", " S1 "),
			book("3", "NoSig", ""),
			book("4", "NoSig", "  "),
		})
		imported, skipped, err := s.ImportMerge(src)
		require.NoError(t, err)
		assert.Equal(t, 3, imported)
		assert.Equal(t, 1, skipped)
		assert.Len(t, all(t, s), 3)
	})

	t.Run("ImportMergeSchemaMismatch", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		sep := string(comma)
		path := filepath.Join(t.TempDir(), "bad.txt")
		content := strings.Join(books.Columns[:6], sep) + "\n1" + sep + "T" + sep + "A" + sep + "P" + sep + "Y" + sep + "S9\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, _, err := s.ImportMerge(path)
		require.ErrorIs(t, err, books.ErrSchemaMismatch)
		assert.ErrorContains(t, err, "Description, Keywords")
		assert.Len(t, all(t, s), 1)
	})

	t.Run("ImportMergeReorderedColumns", func(t *testing.T) {
		s := newStore(t)
		sep := string(comma)
		header := []string{"Keywords", "Signature", "ISBN", "Title", "Author", "Publisher", "Year", "Description", "Extra"}
		row := []string{"k1, k2", "S7", "7", "Seven", "Author", "Pub", "1999", "desc", "ignored"}
		path := filepath.Join(t.TempDir(), "reordered.txt")
		require.NoError(t, os.WriteFile(path, []byte(strings.Join(header, sep)+"\n"+strings.Join(row, sep)+"\n"), 0o600))
		imported, skipped, err := s.ImportMerge(path)
		require.NoError(t, err)
		assert.Equal(t, 1, imported)
		assert.Equal(t, 0, skipped)
		want := books.Book{ISBN: "7", Title: "Seven", Author: "Author", Publisher: "Pub", Year: "1999", Signature: "S7", Description: "desc", Keywords: "k1, k2"}
		assert.Equal(t, []books.Book{want}, all(t, s))
	})

	t.Run("ExportRoundTrip", func(t *testing.T) {
		s := newStore(t)
		rows := []books.Book{
			{ISBN: "0", Title: "Semi; colon", Author: "Tab\there", Publisher: `"Quoted"`, Year: "0042", Signature: "S-1", Description: "multi\nline", Keywords: "ä, ö, ü"},
			{ISBN: "9", Title: " lead", Description: "windows\r\nline", Keywords: "cr\ronly"},
			{ISBN: "00123", Title: "  padded  ", Year: "1.50", Signature: "", Keywords: ","},
		}
		for _, b := range rows {
			require.NoError(t, s.Add(b))
		}
		out := filepath.Join(t.TempDir(), "export.txt")
		require.NoError(t, s.Export(out, all(t, s)))
		got, err := dsv.ReadFile(out, comma)
		require.NoError(t, err)
		assert.Equal(t, rows, got)

		if r, ok := s.(books.Replacer); ok {
			require.NoError(t, r.ImportReplace(out))
			assert.Equal(t, rows, all(t, s))
		}
	})

	t.Run("ExportEmpty", func(t *testing.T) {
		s := newStore(t)
		out := filepath.Join(t.TempDir(), "export.txt")
		err := s.Export(out, nil)
		require.ErrorIs(t, err, books.ErrEmptyExport)
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("Conflicts", func(t *testing.T) {
		s := newStore(t)
		cc, ok := s.(books.ConflictChecker)
		if !ok {
			t.Skip("store has no conflict check")
		}
		require.NoError(t, s.Add(book("1", "One", "S2")))
		require.NoError(t, s.Add(book("2", "Two", "S1")))
		require.NoError(t, s.Add(book("3", "Three", "")))
		src := writeSource(t, comma, []books.Book{book("x", "", "S1"), book("y", "", " S2 "), book("z", "", "S3"), book("w", "", "")})
		got, err := cc.CheckImportConflicts(src)
		require.NoError(t, err)
		assert.Equal(t, []string{"S1", "S2"}, got)
		assert.Len(t, all(t, s), 3)
	})

	t.Run("Reload", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(book("1", "One", "S1")))
		require.NoError(t, s.Reload())
		assert.Equal(t, []books.Book{book("1", "One", "S1")}, all(t, s))
	})
}

func book(isbn, title, sig string) books.Book {
	return books.Book{ISBN: isbn, Title: title, Signature: sig}
}

func all(t *testing.T, s books.Store) []books.Book {
	t.Helper()
	rows, err := s.All()
	require.NoError(t, err)
	return rows
}

func writeSource(t *testing.T, comma rune, rows []books.Book) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, dsv.WriteFile(path, comma, rows))
	return path
}
