// Package store owns the shared BadgerDB handle and the live change feed
// built on top of it. Repositories define their own key schemas; this
// package only knows how to open the database and watch key prefixes.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Open opens (or creates) the database at the given path.
func Open(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return db, nil
}
