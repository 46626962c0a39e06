package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	return s
}

func TestStore_CreatesBackupDir(t *testing.T) {
	s := newTestStore(t)

	info, err := os.Stat(s.BackupDir())
	if err != nil {
		t.Fatalf("backup dir missing: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("backup path is not a directory")
	}
}

func TestStore_MoveIn(t *testing.T) {
	s := newTestStore(t)

	src := filepath.Join(t.TempDir(), "incoming.jpg")
	content := []byte("jpeg bytes")
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatalf("write source: %v", err)
	}

	n, err := s.MoveIn(src, "cat_1_123.jpg")
	if err != nil {
		t.Fatalf("MoveIn: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("MoveIn size = %d, want %d", n, len(content))
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source file still exists after move")
	}
	if !s.Exists("cat_1_123.jpg") {
		t.Errorf("target file missing after move")
	}
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	s := newTestStore(t)

	for _, path := range []string{"../outside.jpg", "../../etc/passwd", ".."} {
		if _, err := s.abs(path); err == nil {
			t.Errorf("abs(%q) accepted a path outside the root", path)
		}
	}
}

func TestStore_DeleteMissingFileSucceeds(t *testing.T) {
	s := newTestStore(t)

	if err := s.Delete("does-not-exist.png"); err != nil {
		t.Errorf("Delete on missing file: %v", err)
	}
}

func TestStore_ListFilesSkipsBackupDir(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"cat_1_1.jpg", "cat_2_2.png"} {
		if err := os.WriteFile(filepath.Join(s.Root(), name), []byte("x"), 0o640); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	backup := filepath.Join(s.BackupDir(), "backup_1_cat_1_1.jpg")
	if err := os.WriteFile(backup, []byte("x"), 0o640); err != nil {
		t.Fatalf("write backup: %v", err)
	}

	names, err := s.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("ListFiles returned %d entries, want 2: %v", len(names), names)
	}
}

func TestCopyFile_PreservesBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	dest := filepath.Join(dir, "sub", "b.bin")
	content := []byte{0xFF, 0xD8, 0xFF, 0x00, 0x01}
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatalf("write source: %v", err)
	}

	n, err := CopyFile(src, dest)
	if err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("copied %d bytes, want %d", n, len(content))
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("dest bytes differ from source")
	}
}
