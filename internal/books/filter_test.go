package books

import (
	"slices"
	"testing"
)

func TestKeywordTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"a", []string{"a"}},
		{" a , b,, c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Criteria{Keywords: tt.in}.KeywordTokens()
			if !slices.Equal(got, tt.want) {
				t.Errorf("KeywordTokens(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCriteriaIsZero(t *testing.T) {
	if !(Criteria{}).IsZero() {
		t.Error("empty criteria should be zero")
	}
	if !(Criteria{Keywords: " , "}).IsZero() {
		t.Error("criteria with only empty keyword tokens should be zero")
	}
	if (Criteria{Year: "19"}).IsZero() {
		t.Error("criteria with a year should not be zero")
	}
}

func TestMatch(t *testing.T) {
	b := Book{
		ISBN:      "978-3-16-148410-0",
		Title:     "Über die Sprache",
		Author:    "Humboldt",
		Publisher: "",
		Year:      "1836",
		Signature: "LING-7",
		Keywords:  "linguistics, Philosophy",
	}
	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"empty", Criteria{}, true},
		{"isbn substring", Criteria{ISBN: "148410"}, true},
		{"title case folded", Criteria{Title: "ÜBER"}, true},
		{"author mismatch", Criteria{Author: "Kant"}, false},
		{"empty field", Criteria{Publisher: "x"}, false},
		{"year and signature", Criteria{Year: "18", Signature: "ling"}, true},
		{"keywords all", Criteria{Keywords: "philo, LING"}, true},
		{"keywords one missing", Criteria{Keywords: "philosophy, history"}, false},
		{"keywords empty tokens", Criteria{Keywords: ", ,"}, true},
		{"and across fields", Criteria{Title: "sprache", Author: "Kant"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Match(b); got != tt.want {
				t.Errorf("Match(%+v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestFilterBooksKeepsOrder(t *testing.T) {
	rows := []Book{
		{ISBN: "3", Keywords: "a, b"},
		{ISBN: "1", Keywords: "a"},
		{ISBN: "2", Keywords: "b; a"},
	}
	got := FilterBooks(rows, Criteria{Keywords: "a, b"})
	want := []Book{rows[0], rows[2]}
	if !slices.Equal(got, want) {
		t.Errorf("FilterBooks = %+v, want %+v", got, want)
	}
	if got := FilterBooks(nil, Criteria{Title: "x"}); got == nil || len(got) != 0 {
		t.Errorf("FilterBooks(nil) = %#v, want empty slice", got)
	}
}

func TestCriteriaTrim(t *testing.T) {
	c := Criteria{ISBN: " 12 ", Title: "\tgo", Keywords: " a, b "}.Trim()
	want := Criteria{ISBN: "12", Title: "go", Keywords: "a, b"}
	if c != want {
		t.Errorf("Trim() = %+v, want %+v", c, want)
	}
	if !(Criteria{Year: "   "}).Trim().IsZero() {
		t.Error("whitespace-only criteria should be zero")
	}
}
