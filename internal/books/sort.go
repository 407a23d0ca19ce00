package books

import (
	"slices"
	"strings"
)

// Sorter keeps the column toggle state of a displayed list.
//
// Sorting the same column again flips the direction; sorting another column
// starts ascending.
type Sorter struct {
	col  int
	desc bool
	set  bool
}

// Sort records the toggle for col and returns a sorted copy of rows. An
// unknown column returns an unsorted copy and leaves the state unchanged.
func (s *Sorter) Sort(rows []Book, col int) []Book {
	if col < 0 || col >= NumColumns {
		return slices.Clone(rows)
	}
	if s.set && s.col == col {
		s.desc = !s.desc
	} else {
		s.col = col
		s.desc = false
		s.set = true
	}
	return SortBooks(rows, col, s.desc)
}

// Column returns the active sort column, if any.
func (s *Sorter) Column() (int, bool) {
	return s.col, s.set
}

// Descending reports the direction of the active column.
func (s *Sorter) Descending() bool {
	return s.desc
}

// Reset forgets the active column.
func (s *Sorter) Reset() {
	*s = Sorter{}
}

// Indicator returns the header marker for col: "▲", "▼" or "".
func (s *Sorter) Indicator(col int) string {
	if !s.set || s.col != col {
		return ""
	}
	if s.desc {
		return "▼"
	}
	return "▲"
}

// SortBooks returns a copy of rows stably sorted on the lower-cased value of
// col. Ties keep their relative order in both directions.
func SortBooks(rows []Book, col int, desc bool) []Book {
	type keyed struct {
		key string
		b   Book
	}
	tmp := make([]keyed, len(rows))
	for i, b := range rows {
		tmp[i] = keyed{strings.ToLower(b.Field(col)), b}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int {
		if desc {
			return strings.Compare(b.key, a.key)
		}
		return strings.Compare(a.key, b.key)
	})
	out := make([]Book, len(tmp))
	for i := range tmp {
		out[i] = tmp[i].b
	}
	return out
}
