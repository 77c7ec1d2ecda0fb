package sqlite

import (
	"path/filepath"
	"testing"
)

func TestOpenAndQuery(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?)`, "key", "value"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var v string
	if err := db.QueryRow(`SELECT v FROM kv WHERE k = ?`, "key").Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "value" {
		t.Errorf("v = %q, want value", v)
	}
}

func TestDriverName(t *testing.T) {
	if DriverName() != "sqlite" {
		t.Errorf("DriverName() = %q, want sqlite", DriverName())
	}
}
