package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/charmbracelet/log"
)

// Collection keys in the record namespace. The "@" prefix is part of the
// persisted layout and is kept for compatibility with existing stores.
const (
	SongsKey         = "@songs"
	VersionsKey      = "@versions"
	PlaylistsKey     = "@playlists"
	PlaylistItemsKey = "@playlistItems"
)

// Store is a flat key-value namespace over sqlite.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore creates a Store over an open database. The records table must
// already exist (shared.RunMigrations creates it).
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Read returns the raw value stored under key, or nil if the key is absent.
func (s *Store) Read(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return []byte(value), nil
}

// Write stores value under key, replacing any previous value.
func (s *Store) Write(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP",
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// Collection is a typed view over one record key, holding a JSON array of T.
//
// All mutations go through Update, which holds the collection mutex for the
// whole read-modify-write cycle.
type Collection[T any] struct {
	store *Store
	key   string
	mu    sync.Mutex
}

// NewCollection creates a typed collection over the given record key.
func NewCollection[T any](store *Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the record key this collection is stored under.
func (c *Collection[T]) Key() string { return c.key }

// Store returns the underlying record store, for raw reads during migrations.
func (c *Collection[T]) Store() *Store { return c.store }

// Load returns all records in the collection.
//
// A missing key, an unavailable store, or a corrupted value all yield the
// empty collection rather than an error, so list views degrade instead of
// failing.
func (c *Collection[T]) Load() []T {
	raw, err := c.store.Read(c.key)
	if err != nil {
		c.store.logger.Warn("collection read failed, returning empty", "key", c.key, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		c.store.logger.Warn("collection corrupted, returning empty",
			"key", c.key, "error", fmt.Errorf("%w: %v", shared.ErrCorruptedRecord, err))
		return nil
	}
	return records
}

// Save serializes records and writes them back as the whole collection.
func (c *Collection[T]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", c.key, err)
	}
	return c.store.Write(c.key, raw)
}

// Update runs fn over the current records and persists its result, all under
// the collection mutex. If fn returns an error nothing is written.
func (c *Collection[T]) Update(fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := fn(c.Load())
	if err != nil {
		return err
	}
	return c.Save(records)
}
