package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/session"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ViewFlags selects the displayed list: a filter then a sequence of sort
// clicks. Positions given to other commands index this list.
type ViewFlags struct {
	Criteria books.Criteria
	Sort     stringList
}

// Register binds the view flags to fs.
func (v *ViewFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&v.Criteria.ISBN, "isbn", "", "Filter on ISBN substring")
	fs.StringVar(&v.Criteria.Title, "title", "", "Filter on Title substring")
	fs.StringVar(&v.Criteria.Author, "author", "", "Filter on Author substring")
	fs.StringVar(&v.Criteria.Publisher, "publisher", "", "Filter on Publisher substring")
	fs.StringVar(&v.Criteria.Year, "year", "", "Filter on Year substring")
	fs.StringVar(&v.Criteria.Signature, "signature", "", "Filter on Signature substring")
	fs.StringVar(&v.Criteria.Keywords, "keywords", "", "Comma-separated keywords, all required")
	fs.Var(&v.Sort, "sort", "Sort on column; repeat the same column to reverse")
}

// Apply filters then sorts s.
func (v *ViewFlags) Apply(s *session.Session) error {
	if err := s.ApplyFilter(v.Criteria); err != nil {
		return err
	}
	for _, col := range v.Sort {
		if err := s.SortBy(col); err != nil {
			return err
		}
	}
	return nil
}

// BookFlags collects the fields of a record from the command line.
type BookFlags struct {
	fs     *flag.FlagSet
	values [books.NumColumns]string
}

// Register binds one flag per column to fs.
func (f *BookFlags) Register(fs *flag.FlagSet) {
	f.fs = fs
	for i, c := range books.Columns {
		fs.StringVar(&f.values[i], strings.ToLower(c), "", c)
	}
}

// Book returns the record built from the flags.
func (f *BookFlags) Book() books.Book {
	return books.FromValues(f.values[:])
}

// Overlay returns base with the fields explicitly set on the command line
// replaced.
func (f *BookFlags) Overlay(base books.Book) books.Book {
	v := base.Values()
	f.fs.Visit(func(fl *flag.Flag) {
		if i := books.ColumnIndex(fl.Name); i >= 0 {
			v[i] = f.values[i]
		}
	})
	return books.FromValues(v)
}

// Positions parses displayed row positions.
func Positions(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one position is required")
	}
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid position %q", a)
		}
		out = append(out, n)
	}
	return out, nil
}
