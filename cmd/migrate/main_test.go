package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUpFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "down.sql", "001_a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := upFiles(dir)
	if err != nil {
		t.Fatalf("upFiles: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "001_a.sql" || filepath.Base(files[1]) != "002_b.sql" {
		t.Errorf("unexpected files %v", files)
	}

	if _, err := upFiles(t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}
}
