package books

import (
	"errors"
	"slices"
	"testing"
)

func TestIndexOfISBN(t *testing.T) {
	rows := []Book{{ISBN: "a"}, {ISBN: " b "}, {ISBN: "b"}}
	tests := []struct {
		isbn string
		want int
	}{
		{"a", 0},
		{"b", 1},
		{"  b", 1},
		{"c", -1},
	}
	for _, tt := range tests {
		if got := IndexOfISBN(rows, tt.isbn); got != tt.want {
			t.Errorf("IndexOfISBN(%q) = %d, want %d", tt.isbn, got, tt.want)
		}
	}
}

func TestCheckSignature(t *testing.T) {
	rows := []Book{{Signature: "S1"}, {Signature: ""}, {Signature: "S2"}}
	if err := CheckSignature(rows, Book{Signature: "S1"}, -1); !errors.Is(err, ErrDuplicateSignature) {
		t.Errorf("expected duplicate, got %v", err)
	}
	if err := CheckSignature(rows, Book{Signature: "S1"}, 0); err != nil {
		t.Errorf("own signature: %v", err)
	}
	if err := CheckSignature(rows, Book{Signature: " "}, -1); err != nil {
		t.Errorf("absent signature: %v", err)
	}
	if err := CheckSignature(rows, Book{Signature: "s1"}, -1); err != nil {
		t.Errorf("signatures are case-sensitive: %v", err)
	}
}

func TestConflicts(t *testing.T) {
	current := []Book{{Signature: "B"}, {Signature: "A"}, {Signature: ""}}
	source := []Book{{Signature: " A"}, {Signature: "B"}, {Signature: "C"}, {Signature: ""}}
	if got, want := Conflicts(current, source), []string{"A", "B"}; !slices.Equal(got, want) {
		t.Errorf("Conflicts = %q, want %q", got, want)
	}
	if got := Conflicts(nil, source); got == nil || len(got) != 0 {
		t.Errorf("Conflicts(nil) = %#v, want empty slice", got)
	}
}

func TestMerge(t *testing.T) {
	current := []Book{{ISBN: "1", Signature: "S1"}}
	source := []Book{
		{ISBN: "2", Signature: "S1"},
		{ISBN: "3", Signature: "S3"},
		{ISBN: "4", Signature: "S3 "},
		{ISBN: "5", Signature: " "},
		{ISBN: "6"},
	}
	add, skipped := Merge(current, source)
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	want := []Book{{ISBN: "3", Signature: "S3"}, {ISBN: "5"}, {ISBN: "6"}}
	if !slices.Equal(add, want) {
		t.Errorf("add = %+v, want %+v", add, want)
	}
}
