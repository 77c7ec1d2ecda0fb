package annocache

import (
	"path/filepath"
	"testing"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "anno.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMiss(t *testing.T) {
	c := openCache(t)

	_, ok, err := c.Get("run.hkx", "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("hit on empty cache")
	}
}

func TestPutGet(t *testing.T) {
	c := openCache(t)

	if err := c.Put("run.hkx", "abc", "# duration: 1.0\n"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	content, ok, err := c.Get("run.hkx", "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("miss after Put")
	}
	if content != "# duration: 1.0\n" {
		t.Errorf("content = %q", content)
	}
}

func TestHashIsPartOfKey(t *testing.T) {
	c := openCache(t)

	if err := c.Put("run.hkx", "old", "old text"); err != nil {
		t.Fatal(err)
	}

	// Same path, new content hash: must miss.
	if _, ok, err := c.Get("run.hkx", "new"); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("stale hit for changed content")
	}
}

func TestPutReplaces(t *testing.T) {
	c := openCache(t)

	if err := c.Put("run.hkx", "abc", "first"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("run.hkx", "abc", "second"); err != nil {
		t.Fatal(err)
	}

	content, ok, err := c.Get("run.hkx", "abc")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if content != "second" {
		t.Errorf("content = %q, want second", content)
	}
}
