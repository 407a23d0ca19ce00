package books

import "strings"

// Criteria holds the optional substring constraints of a filter. An empty
// field places no constraint.
//
// Keywords is a comma-separated list; every non-empty token must appear in
// the record's Keywords.
type Criteria struct {
	ISBN      string
	Title     string
	Author    string
	Publisher string
	Year      string
	Signature string
	Keywords  string
}

// IsZero reports whether the criteria constrain nothing.
func (c Criteria) IsZero() bool {
	return c.ISBN == "" && c.Title == "" && c.Author == "" && c.Publisher == "" &&
		c.Year == "" && c.Signature == "" && len(c.KeywordTokens()) == 0
}

// Trim returns c with surrounding whitespace removed from every field.
func (c Criteria) Trim() Criteria {
	for _, f := range []*string{&c.ISBN, &c.Title, &c.Author, &c.Publisher, &c.Year, &c.Signature, &c.Keywords} {
		*f = strings.TrimSpace(*f)
	}
	return c
}

// KeywordTokens splits Keywords on commas and drops empty tokens.
func (c Criteria) KeywordTokens() []string {
	var out []string
	for kw := range strings.SplitSeq(c.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Match reports whether b satisfies every active constraint.
func (c Criteria) Match(b Book) bool {
	fields := [...]struct{ value, want string }{
		{b.ISBN, c.ISBN},
		{b.Title, c.Title},
		{b.Author, c.Author},
		{b.Publisher, c.Publisher},
		{b.Year, c.Year},
		{b.Signature, c.Signature},
	}
	for _, f := range fields {
		if f.want != "" && !containsFold(f.value, f.want) {
			return false
		}
	}
	for _, kw := range c.KeywordTokens() {
		if !containsFold(b.Keywords, kw) {
			return false
		}
	}
	return true
}

// FilterBooks returns the rows matching c, in their original order.
func FilterBooks(rows []Book, c Criteria) []Book {
	out := make([]Book, 0, len(rows))
	for _, b := range rows {
		if c.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// containsFold is a case-insensitive strings.Contains. An empty s never
// contains a non-empty substr.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
