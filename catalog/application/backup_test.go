package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openmerch/catalog/catalog/storage"
)

func newTestBackupManager(t *testing.T) (*BackupManager, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewBackupManager(store), store
}

func TestBackupManager_RoundTrip(t *testing.T) {
	m, store := newTestBackupManager(t)

	original := filepath.Join(store.Root(), "cat_5_1000_1.jpg")
	content := []byte{0xFF, 0xD8, 0xFF, 0xAA, 0xBB}
	if err := os.WriteFile(original, content, 0o640); err != nil {
		t.Fatalf("write original: %v", err)
	}

	backupPath, err := m.Backup(original)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if backupPath == "" {
		t.Fatal("Backup returned empty path for an existing file")
	}
	if !strings.HasPrefix(filepath.Base(backupPath), backupFilePrefix) {
		t.Errorf("backup name %q missing prefix", filepath.Base(backupPath))
	}

	// Clobber the original, then restore.
	if err := os.WriteFile(original, []byte("corrupted"), 0o640); err != nil {
		t.Fatalf("overwrite original: %v", err)
	}
	if err := m.Restore(backupPath, original); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := os.ReadFile(original)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(restored) != string(content) {
		t.Errorf("restored bytes differ from original")
	}
	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Errorf("consumed backup still exists")
	}
}

func TestBackupManager_BackupMissingSourceIsNoop(t *testing.T) {
	m, store := newTestBackupManager(t)

	backupPath, err := m.Backup(filepath.Join(store.Root(), "never-existed.png"))
	if err != nil {
		t.Fatalf("Backup on missing source: %v", err)
	}
	if backupPath != "" {
		t.Errorf("expected empty backup path, got %q", backupPath)
	}
}

func TestBackupManager_Sweep(t *testing.T) {
	m, store := newTestBackupManager(t)

	stale := filepath.Join(store.BackupDir(), "backup_1_cat_1_1.jpg")
	fresh := filepath.Join(store.BackupDir(), "backup_2_cat_2_2.jpg")
	unrelated := filepath.Join(store.BackupDir(), "notes.txt")
	for _, p := range []string{stale, fresh, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0o640); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale backup: %v", err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatalf("age unrelated file: %v", err)
	}

	removed := m.Sweep(DefaultBackupMaxAge)
	if removed != 1 {
		t.Errorf("Sweep removed %d files, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale backup survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh backup was swept: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("non-backup file was swept: %v", err)
	}
}
