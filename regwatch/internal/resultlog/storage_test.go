package resultlog

import (
	"context"
	"testing"

	"github.com/hazyhaar/regwatch/dbopen"

	_ "modernc.org/sqlite"
)

func TestSQLiteStorage_ReadMissing(t *testing.T) {
	// WHAT: Reading an absent key reports ok=false without error.
	// WHY: First boot must not look like a storage failure.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLiteStorage(db)

	_, ok, err := s.Read(context.Background(), StorageKey)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing key")
	}
}

func TestSQLiteStorage_WriteRead(t *testing.T) {
	// WHAT: Write then Read round-trips the value.
	// WHY: The whole trigger log lives in this one row.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLiteStorage(db)
	ctx := context.Background()

	if err := s.Write(ctx, StorageKey, `{"src_1":{}}`); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, ok, err := s.Read(ctx, StorageKey)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if v != `{"src_1":{}}` {
		t.Fatalf("value = %q", v)
	}
}

func TestSQLiteStorage_Upsert(t *testing.T) {
	// WHAT: A second Write to the same key replaces the value.
	// WHY: The key is fixed; every flush overwrites the previous one.
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLiteStorage(db)
	ctx := context.Background()

	if err := s.Write(ctx, StorageKey, "one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, StorageKey, "two"); err != nil {
		t.Fatal(err)
	}

	v, _, err := s.Read(ctx, StorageKey)
	if err != nil {
		t.Fatal(err)
	}
	if v != "two" {
		t.Fatalf("value = %q, want two", v)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM dashboard_state`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
}
