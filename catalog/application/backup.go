package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/storage"
)

const backupFilePrefix = "backup_"

// DefaultBackupMaxAge bounds how long orphaned backups survive. Backups are
// normally consumed within a single pipeline run; anything older belongs to
// a process that crashed mid-operation.
const DefaultBackupMaxAge = 24 * time.Hour

// BackupManager snapshots an existing asset before it is overwritten and can
// restore it if the replacement fails. Backups live in the store's .backups
// subdirectory under timestamp-qualified names.
type BackupManager struct {
	dir string
	now func() time.Time
}

func NewBackupManager(store *storage.Store) *BackupManager {
	return &BackupManager{dir: store.BackupDir(), now: time.Now}
}

// Backup copies the file at path into the backup directory and returns the
// backup's absolute path. A missing source is a successful no-op returning
// an empty backup path, since there is nothing to protect.
func (m *BackupManager) Backup(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	name := fmt.Sprintf("%s%d_%s", backupFilePrefix, m.now().UnixMilli(), filepath.Base(path))
	backupPath := filepath.Join(m.dir, name)

	if _, err := storage.CopyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("backup %q: %w", path, err)
	}
	return backupPath, nil
}

// Restore copies a backup back over its original path and removes the
// backup. Failing to remove the consumed backup is not an error; the sweep
// reclaims it later.
func (m *BackupManager) Restore(backupPath, originalPath string) error {
	if backupPath == "" || originalPath == "" {
		return fmt.Errorf("restore requires both a backup path and an original path")
	}

	if _, err := storage.CopyFile(backupPath, originalPath); err != nil {
		return fmt.Errorf("restore %q: %w", originalPath, err)
	}
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("backup", backupPath).Msg("could not remove consumed backup")
	}
	return nil
}

// Remove deletes a backup that is no longer needed (the pipeline succeeded).
func (m *BackupManager) Remove(backupPath string) error {
	if backupPath == "" {
		return nil
	}
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Sweep deletes backup files older than maxAge and returns how many were
// removed. It is safe to run concurrently with active pipelines: in-flight
// backups are recent by definition and fall inside the cutoff.
func (m *BackupManager) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", m.dir).Msg("backup sweep: readdir failed")
		}
		return 0
	}

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupFilePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(m.dir, e.Name())
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("backup", e.Name()).Msg("backup sweep: remove failed")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("backup sweep complete")
	}
	return removed
}

// RunPeriodicSweep sweeps on every interval until ctx is cancelled. A first
// pass runs immediately to reclaim backups left over from a previous crash.
func (m *BackupManager) RunPeriodicSweep(ctx context.Context, maxAge, interval time.Duration) {
	go func() {
		m.Sweep(maxAge)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(maxAge)
			case <-ctx.Done():
				return
			}
		}
	}()
}
