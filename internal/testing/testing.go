// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/alsdbtjd0103/norae/internal/storage"
	"github.com/charmbracelet/log"
)

// NewTestStore creates a record store over an in-memory SQLite database with
// migrations applied. The database is closed when the test finishes.
func NewTestStore(t *testing.T) (*storage.Store, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return storage.NewStore(db, QuietLogger()), db
}

// QuietLogger returns a logger that discards all output.
func QuietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

// FakeTransport is a scriptable test double for player.Transport. Tests set
// Pos and Dur directly to simulate playback progress.
type FakeTransport struct {
	mu sync.Mutex

	LoadedURL string
	LoadErr   error
	SeekErr   error
	playing   bool
	Pos       time.Duration
	Dur       time.Duration
	Loads     int
	Seeks     []time.Duration
}

func (f *FakeTransport) Load(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.LoadedURL = url
	f.Loads++
	f.Pos = 0
	return nil
}

func (f *FakeTransport) Play() {
	f.mu.Lock()
	f.playing = true
	f.mu.Unlock()
}

func (f *FakeTransport) Pause() {
	f.mu.Lock()
	f.playing = false
	f.mu.Unlock()
}

func (f *FakeTransport) Seek(pos time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SeekErr != nil {
		return f.SeekErr
	}
	f.Pos = pos
	f.Seeks = append(f.Seeks, pos)
	return nil
}

func (f *FakeTransport) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Pos
}

func (f *FakeTransport) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Dur
}

func (f *FakeTransport) Playing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *FakeTransport) Close() error { return nil }

// SetProgress scripts the transport's reported position and duration.
func (f *FakeTransport) SetProgress(pos, dur time.Duration) {
	f.mu.Lock()
	f.Pos = pos
	f.Dur = dur
	f.mu.Unlock()
}
