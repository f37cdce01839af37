package cache

import (
	"context"
	"path/filepath"
	"testing"

	"wikiutils/pkg/db"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteCache(d)
}

func TestSetGetCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, hit := c.GetCache(ctx, "missing"); hit {
		t.Error("expected miss for unknown key")
	}

	if err := c.SetCache(ctx, "wd_entity_Q622868", []byte(`{"entities":{}}`)); err != nil {
		t.Fatalf("SetCache failed: %v", err)
	}

	val, hit := c.GetCache(ctx, "wd_entity_Q622868")
	if !hit {
		t.Fatal("expected hit")
	}
	if string(val) != `{"entities":{}}` {
		t.Errorf("unexpected value: %s", val)
	}
}

func TestSetCacheOverwrite(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.SetCache(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetCache(ctx, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	val, hit := c.GetCache(ctx, "k")
	if !hit || string(val) != "v2" {
		t.Errorf("expected v2, got %q (hit=%v)", val, hit)
	}
}
