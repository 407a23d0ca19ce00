package books

import (
	"slices"
	"strings"
)

// Reader is the read side of the record store contract. The read-only
// viewer backend implements only this.
type Reader interface {
	// All returns every record in backend-native order.
	All() ([]Book, error)
	// Filter returns the records matching c in backend-native order.
	Filter(c Criteria) ([]Book, error)
	// Export writes rows, with a header, in the backend's serialization.
	Export(path string, rows []Book) error
	// Reload re-reads the backing store.
	Reload() error
}

// Store is the full record store contract of the Library Manager.
//
// Every mutation is write-through: it is persisted before the call returns
// and leaves the store unchanged when it fails.
type Store interface {
	Reader
	// Add appends b. It fails with ErrDuplicateSignature when b has a
	// Signature already held by another record.
	Add(b Book) error
	// Update replaces all fields of the first record whose trimmed ISBN
	// equals lookupISBN. lookupISBN is the pre-edit ISBN; b may carry a new
	// one.
	Update(lookupISBN string, b Book) error
	// Delete removes the record at position pos of All().
	Delete(pos int) error
	// ImportMerge appends the source records whose Signature is absent or
	// new, and returns how many were imported and skipped.
	ImportMerge(path string) (imported, skipped int, err error)
}

// ConflictChecker reports Signature collisions of an import without
// mutating the store.
type ConflictChecker interface {
	CheckImportConflicts(path string) ([]string, error)
}

// Replacer replaces the whole record set with an import source.
type Replacer interface {
	ImportReplace(path string) error
}

// IndexOfISBN returns the first position whose trimmed ISBN equals the
// trimmed isbn, or -1.
func IndexOfISBN(rows []Book, isbn string) int {
	isbn = strings.TrimSpace(isbn)
	for i := range rows {
		if strings.TrimSpace(rows[i].ISBN) == isbn {
			return i
		}
	}
	return -1
}

// CheckSignature returns a DuplicateSignature error when b's Signature is
// already held by a row other than the one at position skip. Pass -1 for
// skip on insert.
func CheckSignature(rows []Book, b Book, skip int) error {
	if !b.HasSignature() {
		return nil
	}
	for i := range rows {
		if i != skip && rows[i].Signature == b.Signature {
			return DuplicateSignature(b.Signature)
		}
	}
	return nil
}

// SignatureSet returns the trimmed present Signatures of rows.
func SignatureSet(rows []Book) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for i := range rows {
		if rows[i].HasSignature() {
			set[strings.TrimSpace(rows[i].Signature)] = struct{}{}
		}
	}
	return set
}

// Conflicts returns the sorted Signatures present in both current and source.
func Conflicts(current, source []Book) []string {
	have := SignatureSet(current)
	out := []string{}
	for sig := range SignatureSet(source) {
		if _, ok := have[sig]; ok {
			out = append(out, sig)
		}
	}
	slices.Sort(out)
	return out
}

// Merge splits source into the records to append and the number skipped. A
// record is skipped when its Signature is already in current or was taken by
// an earlier record of source.
func Merge(current, source []Book) (add []Book, skipped int) {
	seen := SignatureSet(current)
	for _, b := range source {
		b = b.Normalize()
		if b.HasSignature() {
			sig := strings.TrimSpace(b.Signature)
			if _, ok := seen[sig]; ok {
				skipped++
				continue
			}
			seen[sig] = struct{}{}
		}
		add = append(add, b)
	}
	return add, skipped
}
