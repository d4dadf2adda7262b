package database

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestMigrationFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "010_add_index.sql", "002_waiting.sql", "001_initial_schema.sql", "README.md", "abc_notes.sql", "000_zero.sql")
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int{1, 2, 10}
	if len(files) != len(expected) {
		t.Fatalf("expected %d files, got %d: %+v", len(expected), len(files), files)
	}
	for i, v := range expected {
		if files[i].version != v {
			t.Fatalf("expected version %d at %d, got %d", v, i, files[i].version)
		}
	}
}

func TestMigrationFiles_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "001_a.sql", "001_b.sql")

	if _, err := migrationFiles(dir); err == nil {
		t.Fatalf("expected duplicate version error")
	}
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	if _, err := migrationFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
