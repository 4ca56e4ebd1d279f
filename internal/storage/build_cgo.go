//go:build sqlite_cgo
// +build sqlite_cgo

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
// It selects the C SQLite driver, whose FTS5 implementation is the fastest
// option for large corpora.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,fts5" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

// dsn encodes the connection pragmas in the DSN so the driver applies them
// to every pooled connection. This driver has no temp_store parameter; the
// remaining pragmas match the purego build.
func dsn(dbPath string) string {
	return dbPath +
		"?_journal_mode=WAL" +
		"&_synchronous=NORMAL" +
		"&_cache_size=10000" +
		"&_foreign_keys=1" +
		"&_busy_timeout=5000"
}
