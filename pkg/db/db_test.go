package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestInitAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	d, err := Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	// Cache table must exist and be writable
	if _, err := d.Exec("INSERT INTO cache (key, value) VALUES (?, ?)", "k1", []byte("v1")); err != nil {
		t.Fatalf("insert into cache failed: %v", err)
	}

	var val []byte
	if err := d.QueryRow("SELECT value FROM cache WHERE key = ?", "k1").Scan(&val); err != nil {
		t.Fatalf("select from cache failed: %v", err)
	}
	if string(val) != "v1" {
		t.Errorf("expected v1, got %s", val)
	}
}

func TestPruneCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	d, err := Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer d.Close()

	old := time.Now().Add(-48 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec("INSERT INTO cache (key, value, created_at) VALUES (?, ?, ?)", "old", []byte("x"), old); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO cache (key, value) VALUES (?, ?)", "fresh", []byte("y")); err != nil {
		t.Fatal(err)
	}

	if err := d.PruneCache(24 * time.Hour); err != nil {
		t.Fatalf("PruneCache failed: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM cache").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after prune, got %d", count)
	}
}
