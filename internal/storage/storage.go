// Package storage archives scanned maps and signs in embedded SQLite files.
//
// Each archive owns one file and one connection. Writes are serialized
// through that connection and auto-committed; contention from external
// readers is absorbed by a bounded busy timeout rather than a retry loop.
// Upserts preserve the first time a record was seen.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrClosed is returned by every operation on a closed archive
	ErrClosed = errors.New("archive is closed")
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
)

// Options controls the durability and contention behaviour of an archive
type Options struct {
	JournalMode string        `yaml:"journal_mode"`
	Synchronous string        `yaml:"synchronous"`
	TempStore   string        `yaml:"temp_store"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DefaultOptions favours throughput: WAL journaling with relaxed syncs
// and a five second wait on locked files.
func DefaultOptions() Options {
	return Options{
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		TempStore:   "MEMORY",
		BusyTimeout: 5 * time.Second,
	}
}

// ApplyDefaults fills in missing values with defaults
func (o *Options) ApplyDefaults() {
	d := DefaultOptions()
	if o.JournalMode == "" {
		o.JournalMode = d.JournalMode
	}
	if o.Synchronous == "" {
		o.Synchronous = d.Synchronous
	}
	if o.TempStore == "" {
		o.TempStore = d.TempStore
	}
	if o.BusyTimeout == 0 {
		o.BusyTimeout = d.BusyTimeout
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	journalModes := map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	if !journalModes[strings.ToUpper(o.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", o.JournalMode)
	}
	syncModes := map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if !syncModes[strings.ToUpper(o.Synchronous)] {
		return fmt.Errorf("invalid synchronous mode: %s", o.Synchronous)
	}
	tempStores := map[string]bool{"DEFAULT": true, "FILE": true, "MEMORY": true}
	if !tempStores[strings.ToUpper(o.TempStore)] {
		return fmt.Errorf("invalid temp store: %s", o.TempStore)
	}
	if o.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout cannot be negative")
	}
	return nil
}

func (o Options) dsn(path string) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", o.BusyTimeout.Milliseconds()),
		fmt.Sprintf("_pragma=journal_mode(%s)", strings.ToUpper(o.JournalMode)),
		fmt.Sprintf("_pragma=synchronous(%s)", strings.ToUpper(o.Synchronous)),
		fmt.Sprintf("_pragma=temp_store(%s)", strings.ToUpper(o.TempStore)),
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

// archive is the connection lifecycle shared by the map and sign archives
type archive struct {
	path string
	now  func() time.Time

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

func openArchive(path string, opts Options, schema []string) (*archive, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", opts.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
		}
	}

	return &archive{path: path, now: time.Now, db: db}, nil
}

// Path returns the file backing the archive
func (a *archive) Path() string {
	return a.path
}

// Closed reports whether Close has been called
func (a *archive) Closed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// Close waits for in-flight statements and releases the connection.
// Closing twice is a no-op.
func (a *archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close archive %s: %w", a.path, err)
	}
	return nil
}

// with runs fn while holding the archive open
func (a *archive) with(fn func(db *sql.DB) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	return fn(a.db)
}

func (a *archive) stamp(t time.Time) int64 {
	if t.IsZero() {
		t = a.now()
	}
	return t.UnixMilli()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
