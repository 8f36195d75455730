//go:build !cgo_sqlite

package store

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
