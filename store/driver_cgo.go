//go:build cgo_sqlite

package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Driver names the database/sql driver backing the store.
const Driver = "sqlite3"

func openDB(dsn string) (*sql.DB, error) {
	return sql.Open(Driver, dsn)
}
