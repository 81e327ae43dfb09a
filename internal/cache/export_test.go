package cache

import (
	"database/sql"
	"time"
)

// DB exposes the internal *sql.DB for test helpers in cache_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetNow replaces the clock and returns a restore func.
func SetNow(f func() time.Time) func() {
	prev := now
	now = f
	return func() { now = prev }
}

// SetOpenDB replaces the database opener and returns a restore func.
func SetOpenDB(f func(driver, dsn string) (*sql.DB, error)) func() {
	prev := openDB
	openDB = f
	return func() { openDB = prev }
}
