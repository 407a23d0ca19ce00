// Package sqlstore is the relational backend of the record store: a single
// SQLite table with a surrogate key and a UNIQUE Signature column.
//
// Each operation opens the database, runs, and closes it again on every exit
// path. No handle or transaction outlives a call.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/dsv"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ISBN TEXT,
		Title TEXT,
		Author TEXT,
		Publisher TEXT,
		Year TEXT,
		Signature TEXT UNIQUE,
		Description TEXT,
		Keywords TEXT
	);
`

const (
	selectSQL = `SELECT id, ISBN, Title, Author, Publisher, Year, Signature, Description, Keywords FROM books ORDER BY id`
	insertSQL = `
		INSERT INTO books (ISBN, Title, Author, Publisher, Year, Signature, Description, Keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	updateSQL = `
		UPDATE books
		SET ISBN = ?, Title = ?, Author = ?, Publisher = ?, Year = ?,
			Signature = ?, Description = ?, Keywords = ?
		WHERE id = ?;
	`
)

// Opener returns a fresh database handle. The store closes it after use.
type Opener func() (*sql.DB, error)

// Store keeps the catalog in a SQLite database.
type Store struct {
	open Opener
}

var (
	_ books.Store           = (*Store)(nil)
	_ books.ConflictChecker = (*Store)(nil)
)

// New opens (or creates) the database at path and ensures the books table
// exists.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, books.IOError("failed to create database directory", err)
	}
	s := NewWithOpener(func() (*sql.DB, error) {
		return sql.Open("sqlite3", path)
	})
	err := s.withDB(func(db *sql.DB) error {
		if _, err := db.Exec(schemaSQL); err != nil {
			return books.IOError("failed to initialize schema", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Opened database", "path", path)
	return s, nil
}

// NewWithOpener returns a Store using open for every operation. The schema is
// assumed to exist.
func NewWithOpener(open Opener) *Store {
	return &Store{open: open}
}

// withDB opens a handle, runs fn and closes the handle.
func (s *Store) withDB(fn func(db *sql.DB) error) error {
	db, err := s.open()
	if err != nil {
		return books.IOError("failed to open database", err)
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(db)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// record is a book with its surrogate key.
type record struct {
	id   int64
	book books.Book
}

func queryRecords(q querier) ([]record, error) {
	rows, err := q.Query(selectSQL)
	if err != nil {
		return nil, books.IOError("failed to query books", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var out []record
	for rows.Next() {
		var id int64
		var v [books.NumColumns]sql.NullString
		if err := rows.Scan(&id, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7]); err != nil {
			return nil, books.IOError("failed to scan book", err)
		}
		// NULL reads back as "".
		var f [books.NumColumns]string
		for i := range v {
			f[i] = v[i].String
		}
		out = append(out, record{id: id, book: books.FromValues(f[:])})
	}
	if err := rows.Err(); err != nil {
		return nil, books.IOError("failed to read books", err)
	}
	return out, nil
}

func toBooks(recs []record) []books.Book {
	out := make([]books.Book, len(recs))
	for i := range recs {
		out[i] = recs[i].book
	}
	return out
}

// bookArgs returns the column values of b, with an absent Signature as NULL.
func bookArgs(b books.Book) []any {
	var sig any
	if b.HasSignature() {
		sig = b.Signature
	}
	return []any{b.ISBN, b.Title, b.Author, b.Publisher, b.Year, sig, b.Description, b.Keywords}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// All returns every record in primary-key order.
func (s *Store) All() ([]books.Book, error) {
	var out []books.Book
	err := s.withDB(func(db *sql.DB) error {
		recs, err := queryRecords(db)
		if err != nil {
			return err
		}
		out = toBooks(recs)
		return nil
	})
	return out, err
}

// Filter returns the records matching c in primary-key order.
func (s *Store) Filter(c books.Criteria) ([]books.Book, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return books.FilterBooks(all, c), nil
}

// Reload checks that the database is reachable. Nothing is cached.
func (s *Store) Reload() error {
	return s.withDB(func(db *sql.DB) error {
		if err := db.Ping(); err != nil {
			return books.IOError("failed to reach database", err)
		}
		return nil
	})
}

// Add inserts b.
func (s *Store) Add(b books.Book) error {
	b = b.Normalize()
	err := s.withDB(func(db *sql.DB) error {
		if b.HasSignature() {
			var n int
			if err := db.QueryRow(`SELECT COUNT(*) FROM books WHERE Signature = ?`, b.Signature).Scan(&n); err != nil {
				return books.IOError("failed to check signature", err)
			}
			if n > 0 {
				return books.DuplicateSignature(b.Signature)
			}
		}
		if _, err := db.Exec(insertSQL, bookArgs(b)...); err != nil {
			if isUniqueViolation(err) {
				return books.DuplicateSignature(b.Signature)
			}
			return books.IOError("failed to insert book", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("Added book", "isbn", b.ISBN, "signature", b.Signature)
	return nil
}

// Update replaces the record with the lowest id whose trimmed ISBN equals the
// trimmed lookupISBN.
func (s *Store) Update(lookupISBN string, b books.Book) error {
	var id int64
	err := s.withDB(func(db *sql.DB) error {
		recs, err := queryRecords(db)
		if err != nil {
			return err
		}
		pos := books.IndexOfISBN(toBooks(recs), lookupISBN)
		if pos < 0 {
			return books.RecordNotFound(lookupISBN)
		}
		id = recs[pos].id
		return updateByID(db, id, b.Normalize())
	})
	if err != nil {
		return err
	}
	slog.Info("Updated book", "lookup", lookupISBN, "id", id, "isbn", b.ISBN)
	return nil
}

// UpdateByID replaces all fields of the record with surrogate key id.
func (s *Store) UpdateByID(id int64, b books.Book) error {
	return s.withDB(func(db *sql.DB) error {
		return updateByID(db, id, b.Normalize())
	})
}

func updateByID(db *sql.DB, id int64, b books.Book) error {
	if b.HasSignature() {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM books WHERE Signature = ? AND id != ?`, b.Signature, id).Scan(&n); err != nil {
			return books.IOError("failed to check signature", err)
		}
		if n > 0 {
			return books.DuplicateSignature(b.Signature)
		}
	}
	res, err := db.Exec(updateSQL, append(bookArgs(b), id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return books.DuplicateSignature(b.Signature)
		}
		return books.IOError("failed to update book", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return books.IOError("failed to update book", err)
	}
	if n == 0 {
		return books.NewError(books.CodeRecordNotFound, fmt.Sprintf("book with id %d not found", id)).WithDetail("id", id)
	}
	return nil
}

// Delete removes the record at position pos of All(). The position is
// resolved to its surrogate key at the moment of deletion.
func (s *Store) Delete(pos int) error {
	var id int64
	err := s.withDB(func(db *sql.DB) error {
		recs, err := queryRecords(db)
		if err != nil {
			return err
		}
		if pos < 0 || pos >= len(recs) {
			return books.InvalidIndex(pos, len(recs))
		}
		id = recs[pos].id
		return deleteByID(db, id)
	})
	if err != nil {
		return err
	}
	slog.Info("Deleted book", "pos", pos, "id", id)
	return nil
}

// DeleteByID removes the record with surrogate key id.
func (s *Store) DeleteByID(id int64) error {
	return s.withDB(func(db *sql.DB) error {
		return deleteByID(db, id)
	})
}

func deleteByID(db *sql.DB, id int64) error {
	if _, err := db.Exec(`DELETE FROM books WHERE id = ?`, id); err != nil {
		return books.IOError("failed to delete book", err)
	}
	return nil
}

// CheckImportConflicts returns the Signatures shared by the database and the
// tab-separated source at path.
func (s *Store) CheckImportConflicts(path string) ([]string, error) {
	src, err := dsv.ReadFile(path, dsv.Tab)
	if err != nil {
		return nil, err
	}
	current, err := s.All()
	if err != nil {
		return nil, err
	}
	return books.Conflicts(current, src), nil
}

// ImportMerge inserts the tab-separated source records whose Signature is
// absent or new, in a single transaction.
func (s *Store) ImportMerge(path string) (imported, skipped int, err error) {
	src, err := dsv.ReadFile(path, dsv.Tab)
	if err != nil {
		return 0, 0, err
	}
	err = s.withDB(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return books.IOError("failed to begin transaction", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		recs, err := queryRecords(tx)
		if err != nil {
			return err
		}
		add, dup := books.Merge(toBooks(recs), src)
		skipped = dup
		for _, b := range add {
			if _, err := tx.Exec(insertSQL, bookArgs(b)...); err != nil {
				if isUniqueViolation(err) {
					skipped++
					continue
				}
				return books.IOError("failed to insert book", err)
			}
			imported++
		}
		if err := tx.Commit(); err != nil {
			return books.IOError("failed to commit transaction", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	slog.Info("Merged import", "path", path, "imported", imported, "skipped", skipped)
	return imported, skipped, nil
}

// Export writes rows as a tab-separated file.
func (s *Store) Export(path string, rows []books.Book) error {
	if len(rows) == 0 {
		return books.EmptyExport()
	}
	return dsv.WriteFile(path, dsv.Tab, rows)
}
