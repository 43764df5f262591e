package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&count); err != nil {
		t.Errorf("audit_entries: %v", err)
	}
	if d.Path() != ":memory:" {
		t.Errorf("Path() = %q", d.Path())
	}
}

func TestMemorySharedAcrossQueries(t *testing.T) {
	d, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO audit_entries (id, kind) VALUES ('a', 'applied')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&count); err != nil || count != 1 {
		t.Errorf("count = %d, err = %v", count, err)
	}
}

func TestKindConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO audit_entries (id, kind) VALUES ('a', 'bogus')`); err == nil {
		t.Error("insert with unknown kind succeeded")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "livedoc.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error: %v", path, err)
	}
	defer d.Close()
	if d.Path() != path {
		t.Errorf("Path() = %q", d.Path())
	}
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer d.Close()

	// Running migrate again should not fail.
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}
