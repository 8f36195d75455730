// Package store is the persistent content cache behind the caching
// fetcher. Fetched repository files are stored in SQLite keyed by a
// BLAKE3 digest of (username, repository, path, branch); each row also
// carries a BLAKE3 digest of its content so damaged rows read as misses.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - CGO (-tags cgo_sqlite): mattn/go-sqlite3
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	key        TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	repository TEXT NOT NULL,
	path       TEXT NOT NULL,
	branch     TEXT NOT NULL,
	digest     TEXT NOT NULL,
	content    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS files_repo ON files (username, repository, branch);
`

// Key addresses one cached file.
type Key struct {
	Username   string
	Repository string
	Path       string
	Branch     string
}

// Digest returns the hex BLAKE3 digest identifying the key.
func (k Key) Digest() string {
	h := blake3.Sum256([]byte(strings.Join([]string{k.Username, k.Repository, k.Path, k.Branch}, "\x00")))
	return hex.EncodeToString(h[:])
}

// ContentDigest returns the hex BLAKE3 digest of content.
func ContentDigest(content []byte) string {
	h := blake3.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Store is a SQLite-backed file cache. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

// Info describes the SQLite driver in use.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// DriverInfo returns information about the compiled-in SQLite driver.
func DriverInfo() Info {
	return Info{DriverName: driverName, DriverType: driverType, Package: driverPackage}
}

// Open opens or creates the cache database at path. Entries older than
// maxAge are treated as misses; zero keeps them until Clear.
func Open(path string, maxAge time.Duration) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	// SQLite serializes writers; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize", path, err)
	}
	return &Store{db: db, maxAge: maxAge, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached content for key. ok is false on a miss, an
// expired entry or a digest mismatch.
func (s *Store) Get(ctx context.Context, key Key) (content []byte, ok bool, err error) {
	var digest string
	var fetchedAt int64
	err = s.db.QueryRowContext(ctx,
		`SELECT digest, content, fetched_at FROM files WHERE key = ?`, key.Digest(),
	).Scan(&digest, &content, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "store get")
	}
	if s.maxAge > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) >= s.maxAge {
		return nil, false, nil
	}
	if ContentDigest(content) != digest {
		return nil, false, nil
	}
	return content, true, nil
}

// Put stores content for key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key Key, content []byte) error {
	if content == nil {
		content = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO files (key, username, repository, path, branch, digest, content, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Digest(), key.Username, key.Repository, key.Path, key.Branch,
		ContentDigest(content), content, s.now().Unix(),
	)
	return errors.Wrap(err, "store put")
}

// Len returns the number of stored entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "store count")
	}
	return n, nil
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files`)
	if err != nil {
		return 0, errors.Wrap(err, "store clear")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "store clear")
	}
	return int(n), nil
}
