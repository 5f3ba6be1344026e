package storage

import (
	"fmt"
	"io"
	"testing"

	"github.com/alsdbtjd0103/norae/internal/shared"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return NewStore(db, shared.NewLogger(io.Discard))
}

func TestStore(t *testing.T) {
	t.Run("ReadMissingKey", func(t *testing.T) {
		store := newTestStore(t)

		raw, err := store.Read("@songs")
		if err != nil {
			t.Fatalf("missing key should not error: %v", err)
		}
		if raw != nil {
			t.Errorf("expected nil for missing key, got %q", raw)
		}
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.Write("@songs", []byte(`[{"id":"1"}]`)); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		raw, err := store.Read("@songs")
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if string(raw) != `[{"id":"1"}]` {
			t.Errorf("unexpected value: %q", raw)
		}
	})

	t.Run("WriteReplaces", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.Write("@songs", []byte(`[]`)); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		if err := store.Write("@songs", []byte(`[{"id":"2"}]`)); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		raw, _ := store.Read("@songs")
		if string(raw) != `[{"id":"2"}]` {
			t.Errorf("expected replacement value, got %q", raw)
		}
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		store := newTestStore(t)

		store.Write("@songs", []byte(`["a"]`))
		store.Write("@versions", []byte(`["b"]`))

		raw, _ := store.Read("@songs")
		if string(raw) != `["a"]` {
			t.Errorf("song key clobbered: %q", raw)
		}
	})
}

func TestCollection(t *testing.T) {
	t.Run("LoadEmpty", func(t *testing.T) {
		coll := NewCollection[record](newTestStore(t), "@records")

		if records := coll.Load(); len(records) != 0 {
			t.Errorf("expected empty collection, got %d records", len(records))
		}
	})

	t.Run("SaveThenLoad", func(t *testing.T) {
		coll := NewCollection[record](newTestStore(t), "@records")

		if err := coll.Save([]record{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		records := coll.Load()
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Name != "one" || records[1].Name != "two" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("SaveNilWritesEmptyArray", func(t *testing.T) {
		store := newTestStore(t)
		coll := NewCollection[record](store, "@records")

		if err := coll.Save(nil); err != nil {
			t.Fatalf("failed to save nil: %v", err)
		}

		raw, _ := store.Read("@records")
		if string(raw) != "[]" {
			t.Errorf("expected empty JSON array, got %q", raw)
		}
	})

	t.Run("CorruptedValueYieldsEmpty", func(t *testing.T) {
		store := newTestStore(t)
		store.Write("@records", []byte("{not json"))

		coll := NewCollection[record](store, "@records")
		if records := coll.Load(); records != nil {
			t.Errorf("expected nil for corrupted value, got %+v", records)
		}
	})

	t.Run("Update", func(t *testing.T) {
		coll := NewCollection[record](newTestStore(t), "@records")

		err := coll.Update(func(records []record) ([]record, error) {
			return append(records, record{ID: "1"}), nil
		})
		if err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		if records := coll.Load(); len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})

	t.Run("UpdateErrorWritesNothing", func(t *testing.T) {
		coll := NewCollection[record](newTestStore(t), "@records")
		coll.Save([]record{{ID: "1"}})

		err := coll.Update(func(records []record) ([]record, error) {
			return nil, fmt.Errorf("boom")
		})
		if err == nil {
			t.Fatal("expected error from update")
		}

		if records := coll.Load(); len(records) != 1 {
			t.Errorf("failed update should not change data, got %d records", len(records))
		}
	})
}
