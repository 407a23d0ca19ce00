// Package books defines the book record, the record store contract shared by
// every storage backend, and the filter and sort rules applied to record
// lists.
package books

import "strings"

// Column names, in persisted order.
const (
	ColISBN        = "ISBN"
	ColTitle       = "Title"
	ColAuthor      = "Author"
	ColPublisher   = "Publisher"
	ColYear        = "Year"
	ColSignature   = "Signature"
	ColDescription = "Description"
	ColKeywords    = "Keywords"
)

// Columns is the exact header of every persisted table.
var Columns = []string{
	ColISBN,
	ColTitle,
	ColAuthor,
	ColPublisher,
	ColYear,
	ColSignature,
	ColDescription,
	ColKeywords,
}

// NumColumns is the number of fields in a Book.
const NumColumns = 8

// Book is a single catalog entry. All fields are opaque text.
type Book struct {
	ISBN        string `yaml:"isbn"`
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Publisher   string `yaml:"publisher"`
	Year        string `yaml:"year"`
	Signature   string `yaml:"signature"`
	Description string `yaml:"description"`
	Keywords    string `yaml:"keywords"`
}

// ColumnIndex returns the position of the named column, ignoring case, or -1.
func ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, c := range Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Field returns the value of the i-th column. Out of range returns "".
func (b Book) Field(i int) string {
	switch i {
	case 0:
		return b.ISBN
	case 1:
		return b.Title
	case 2:
		return b.Author
	case 3:
		return b.Publisher
	case 4:
		return b.Year
	case 5:
		return b.Signature
	case 6:
		return b.Description
	case 7:
		return b.Keywords
	}
	return ""
}

// Values returns the fields in column order.
func (b Book) Values() []string {
	return []string{b.ISBN, b.Title, b.Author, b.Publisher, b.Year, b.Signature, b.Description, b.Keywords}
}

// FromValues builds a Book from values in column order. Missing trailing
// values are left empty and extra values are ignored.
func FromValues(v []string) Book {
	var f [NumColumns]string
	copy(f[:], v)
	return Book{
		ISBN:        f[0],
		Title:       f[1],
		Author:      f[2],
		Publisher:   f[3],
		Year:        f[4],
		Signature:   f[5],
		Description: f[6],
		Keywords:    f[7],
	}
}

// HasSignature reports whether the Signature is present. Whitespace-only
// signatures are absent and exempt from the uniqueness rule.
func (b Book) HasSignature() bool {
	return strings.TrimSpace(b.Signature) != ""
}

// Normalize clears an absent Signature so that it is persisted as empty.
func (b Book) Normalize() Book {
	if !b.HasSignature() {
		b.Signature = ""
	}
	return b
}
