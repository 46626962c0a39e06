package application

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/storage"
)

// CleanupResult reports a bulk deletion: how many owned files were found and
// how many were actually removed.
type CleanupResult struct {
	CleanedCount int `json:"cleanedCount"`
	TotalFound   int `json:"totalFound"`
}

// OrphanScanner enumerates store files by encoded owner id. It only ever
// touches a file on behalf of an owner when the filename provably encodes
// that owner, so unrelated files sharing the directory are never at risk.
type OrphanScanner struct {
	store *storage.Store
}

func NewOrphanScanner(store *storage.Store) *OrphanScanner {
	return &OrphanScanner{store: store}
}

// FilesFor lists every store file owned by ownerID.
func (s *OrphanScanner) FilesFor(ownerID string) ([]string, error) {
	files, err := s.store.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}
	owned := []string{}
	for _, name := range files {
		if IsOwnedBy(ownerID, name) {
			owned = append(owned, name)
		}
	}
	return owned, nil
}

// Cleanup deletes every file owned by ownerID. Used when the owning category
// is deleted. Safe to call when no files exist; individual delete failures
// are logged and reflected in the count difference rather than aborting the
// sweep.
func (s *OrphanScanner) Cleanup(ownerID string) (CleanupResult, error) {
	owned, err := s.FilesFor(ownerID)
	if err != nil {
		return CleanupResult{}, err
	}

	result := CleanupResult{TotalFound: len(owned)}
	for _, name := range owned {
		if err := s.store.Delete(name); err != nil {
			log.Warn().Err(err).Str("file", name).Str("owner", ownerID).Msg("cleanup: delete failed")
			continue
		}
		result.CleanedCount++
	}
	return result, nil
}

// FindUnowned returns the store files whose encoded owner id is not in
// knownOwnerIDs, plus any file that does not parse as an asset name at all.
// These are reported for human review, never deleted here: removing them is
// a destructive decision this subsystem does not make on its own.
func (s *OrphanScanner) FindUnowned(knownOwnerIDs []string) ([]string, error) {
	files, err := s.store.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}

	known := make(map[string]struct{}, len(knownOwnerIDs))
	for _, id := range knownOwnerIDs {
		known[id] = struct{}{}
	}

	orphans := []string{}
	for _, name := range files {
		owner := OwnerOf(name)
		if owner == "" {
			orphans = append(orphans, name)
			continue
		}
		if _, ok := known[owner]; !ok {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}
