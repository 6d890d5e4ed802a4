// Package store persists the assembled wiki data in SQLite and answers the
// read queries of the facade.
//
// Rows are created if absent and never updated or deleted. Names are unique
// case-insensitively; a second row with a known name or URL is skipped.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/automata/dbopen"
	"github.com/hazyhaar/automata/idgen"
)

// Store wraps the SQLite database.
type Store struct {
	DB *sql.DB
	// NewID names ingest runs. Nil means idgen.Default.
	NewID idgen.Generator
}

// Open opens (or creates) the store database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}, opts...)
	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
