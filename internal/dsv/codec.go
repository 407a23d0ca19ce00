// Package dsv reads and writes book tables as delimiter-separated values
// with a header row.
//
// Columns are located by header name, so a source may order them freely and
// carry extra columns. Output always uses the canonical column order and
// quotes a field only when it contains the delimiter, a double quote, a
// carriage return or a line feed. Leading and trailing spaces are written
// as is.
//
// Quoted fields are read back byte for byte, CRLF included.
package dsv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/maruel/bookshelf/internal/books"
)

// Delimiters used by the backends.
const (
	Semicolon rune = ';'
	Tab       rune = '\t'
)

const utf8BOM = "\ufeff"

// Decode reads a header row followed by records. A source missing any of
// books.Columns fails with a SchemaMismatch error before any record is read.
func Decode(r io.Reader, comma rune) ([]books.Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}
	sc := scanner{data: strings.TrimPrefix(string(data), utf8BOM), comma: comma}

	header, err := sc.next()
	if errors.Is(err, io.EOF) {
		return nil, books.SchemaMismatch(books.Columns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	rows := []books.Book{}
	for {
		rec, err := sc.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		var v [books.NumColumns]string
		for i, j := range idx {
			if j < len(rec) {
				v[i] = rec[j]
			}
		}
		rows = append(rows, books.FromValues(v[:]))
	}
	return rows, nil
}

// scanner splits delimited text into records. Blank lines are skipped. A
// field starting with a double quote runs to the matching quote, with ""
// standing for one quote; anything up to the next delimiter after the
// closing quote is kept verbatim.
type scanner struct {
	data  string
	pos   int
	line  int
	comma rune
}

// next returns the next non-blank record, or io.EOF.
func (s *scanner) next() ([]string, error) {
	for s.pos < len(s.data) {
		start := s.pos
		rec, err := s.record()
		if err != nil {
			return nil, err
		}
		if strings.TrimRight(s.data[start:s.pos], "\r\n") != "" {
			return rec, nil
		}
	}
	return nil, io.EOF
}

func (s *scanner) record() ([]string, error) {
	s.line++
	var fields []string
	for {
		var f strings.Builder
		if s.pos < len(s.data) && s.data[s.pos] == '"' {
			s.pos++
			for {
				i := strings.IndexByte(s.data[s.pos:], '"')
				if i < 0 {
					return nil, fmt.Errorf("line %d: unterminated quoted field", s.line)
				}
				f.WriteString(s.data[s.pos : s.pos+i])
				s.line += strings.Count(s.data[s.pos:s.pos+i], "\n")
				s.pos += i + 1
				if s.pos < len(s.data) && s.data[s.pos] == '"' {
					f.WriteByte('"')
					s.pos++
					continue
				}
				break
			}
		}
		end := s.pos
		for end < len(s.data) {
			c, size := utf8.DecodeRuneInString(s.data[end:])
			if c == s.comma || c == '\n' {
				break
			}
			end += size
		}
		text := s.data[s.pos:end]
		s.pos = end
		eol := s.pos == len(s.data) || s.data[s.pos] == '\n'
		if eol {
			text = strings.TrimSuffix(text, "\r")
		}
		f.WriteString(text)
		fields = append(fields, f.String())
		if eol {
			if s.pos < len(s.data) {
				s.pos++
			}
			return fields, nil
		}
		s.pos += utf8.RuneLen(s.comma)
	}
}

// columnIndexes maps each canonical column to its position in header.
func columnIndexes(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make([]int, books.NumColumns)
	var missing []string
	for i, c := range books.Columns {
		j, ok := pos[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		idx[i] = j
	}
	if len(missing) != 0 {
		return nil, books.SchemaMismatch(missing)
	}
	return idx, nil
}

// Encode writes the header and rows, one record per line.
func Encode(w io.Writer, comma rune, rows []books.Book) error {
	bw := bufio.NewWriter(w)
	writeRecord(bw, comma, books.Columns)
	for _, b := range rows {
		writeRecord(bw, comma, b.Values())
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, comma rune, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_, _ = w.WriteRune(comma)
		}
		if !needsQuotes(f, comma) {
			_, _ = w.WriteString(f)
			continue
		}
		_ = w.WriteByte('"')
		_, _ = w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('\n')
}

func needsQuotes(f string, comma rune) bool {
	return strings.ContainsRune(f, comma) || strings.ContainsAny(f, "\"\r\n")
}

// ReadFile decodes the file at path. Access failures are reported as
// books.IOError; schema failures pass through unchanged.
func ReadFile(path string, comma rune) ([]books.Book, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the user on purpose
	if err != nil {
		return nil, books.IOError("failed to read "+path, err)
	}
	rows, err := Decode(bytes.NewReader(data), comma)
	if err != nil {
		if errors.Is(err, books.ErrSchemaMismatch) {
			return nil, err
		}
		return nil, books.IOError("failed to parse "+path, err)
	}
	return rows, nil
}

// WriteFile encodes rows and atomically replaces the file at path.
func WriteFile(path string, comma rune, rows []books.Book) error {
	var buf bytes.Buffer
	if err := Encode(&buf, comma, rows); err != nil {
		return books.IOError("failed to encode "+path, err)
	}
	if err := AtomicWriteFile(path, buf.Bytes(), 0o644); err != nil {
		return books.IOError("failed to write "+path, err)
	}
	return nil
}
