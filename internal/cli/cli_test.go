package cli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/books/tsvstore"
	"github.com/maruel/bookshelf/internal/dsv"
	"github.com/maruel/bookshelf/internal/session"
)

func newSession(t *testing.T, rows []books.Book) *session.Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.tsv")
	require.NoError(t, dsv.WriteFile(path, dsv.Tab, rows))
	store, err := tsvstore.New(path)
	require.NoError(t, err)
	s, err := session.NewViewer(store)
	require.NoError(t, err)
	return s
}

func TestWriteTable(t *testing.T) {
	s := newSession(t, []books.Book{
		{ISBN: "2", Title: "Beta", Description: "two\nlines"},
		{ISBN: "1", Title: "Alpha"},
	})
	require.NoError(t, s.SortBy("isbn"))
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, s))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Contains(t, lines[0], "ISBN▲")
	assert.Contains(t, lines[1], "Alpha")
	assert.Contains(t, lines[2], "two lines")
	assert.Equal(t, "Total: 2 records", lines[3])
}

func TestCell(t *testing.T) {
	long := strings.Repeat("é", maxCell+5)
	got := cell(long)
	assert.Equal(t, maxCell, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "a b", cell(" a \t b\n"))
}

func TestWriteBook(t *testing.T) {
	var buf bytes.Buffer
	b := books.Book{ISBN: "0012", Title: "Go: The Book", Year: "2015", Description: "line 1\nline 2"}
	require.NoError(t, WriteBook(&buf, b))
	assert.True(t, strings.HasPrefix(buf.String(), "isbn: "))
	var got books.Book
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, b, got)
}

func TestViewFlags(t *testing.T) {
	s := newSession(t, []books.Book{
		{ISBN: "1", Title: "B", Keywords: "x"},
		{ISBN: "2", Title: "A", Keywords: "x, y"},
		{ISBN: "3", Title: "C", Keywords: "y"},
	})
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var v ViewFlags
	v.Register(fs)
	require.NoError(t, fs.Parse([]string{"-keywords", "x", "-sort", "title", "-sort", "title", "rest"}))
	assert.Equal(t, []string{"rest"}, fs.Args())
	require.NoError(t, v.Apply(s))
	got := s.Current()
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Title)
	assert.True(t, s.Sorter().Descending())

	v.Sort = append(v.Sort, "nope")
	assert.Error(t, v.Apply(s))
}

func TestViewFlagsTrimmed(t *testing.T) {
	s := newSession(t, []books.Book{
		{ISBN: "1", Title: "Go in practice"},
		{ISBN: "2", Title: "Let's go"},
	})
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var v ViewFlags
	v.Register(fs)
	require.NoError(t, fs.Parse([]string{"-title", " go "}))
	require.NoError(t, v.Apply(s))
	assert.Len(t, s.Current(), 2)
	assert.Equal(t, "go", s.Criteria().Title)
}

func TestBookFlagsOverlay(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var f BookFlags
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"-title", "New", "-signature", ""}))
	base := books.Book{ISBN: "1", Title: "Old", Signature: "S1", Keywords: "k"}
	assert.Equal(t, books.Book{ISBN: "1", Title: "New", Keywords: "k"}, f.Overlay(base))
	assert.Equal(t, books.Book{Title: "New"}, f.Book())
}

func TestPositions(t *testing.T) {
	got, err := Positions([]string{"3", "0"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, got)
	_, err = Positions(nil)
	assert.Error(t, err)
	_, err = Positions([]string{"x"})
	assert.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	ll := &slog.LevelVar{}
	require.NoError(t, SetLevel(ll, "debug"))
	assert.Equal(t, slog.LevelDebug, ll.Level())
	require.NoError(t, SetLevel(ll, "error"))
	assert.Equal(t, slog.LevelError, ll.Level())
	assert.Error(t, SetLevel(ll, "trace"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
	assert.Equal(t, 3, ExitCode(fmt.Errorf("add: %w", books.DuplicateSignature("S"))))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "libmgr")
	assert.True(t, strings.HasPrefix(buf.String(), "libmgr "))
	assert.Contains(t, buf.String(), "Go version:")
}
