package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/session"
)

// maxCell bounds the width of a rendered cell.
const maxCell = 40

// WriteTable renders the displayed rows of s with a position column, header
// sort indicators and the status line.
func WriteTable(w io.Writer, s *session.Session) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	sorter := s.Sorter()
	header := make([]string, 0, books.NumColumns+1)
	header = append(header, "#")
	for i, c := range books.Columns {
		header = append(header, c+sorter.Indicator(i))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for pos, b := range s.Current() {
		cells := make([]string, 0, books.NumColumns+1)
		cells = append(cells, fmt.Sprint(pos))
		for _, v := range b.Values() {
			cells = append(cells, cell(v))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, s.Status())
	return err
}

// cell flattens v to one line and truncates it.
func cell(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if r := []rune(v); len(r) > maxCell {
		return string(r[:maxCell-1]) + "…"
	}
	return v
}

// WriteBook renders b as a YAML document.
func WriteBook(w io.Writer, b books.Book) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return err
	}
	return enc.Close()
}
