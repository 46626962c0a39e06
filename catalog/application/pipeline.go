// Package application implements the category image lifecycle: naming,
// validation, the transactional upload pipeline with rollback, backups,
// integrity verification and orphan cleanup.
package application

import (
	"fmt"
	"path"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/domain"
	"github.com/openmerch/catalog/catalog/storage"
)

// rollbackAction is one compensating closure. Actions are idempotent;
// running the accumulated list in reverse order returns the store to its
// pre-operation state.
type rollbackAction struct {
	name string
	run  func() error
}

// runContext carries all per-invocation state through the pipeline stages.
// Keeping it on the stack (rather than on the pipeline struct) means two
// concurrent invocations can never cross-contaminate each other's rollback
// or backup tracking.
type runContext struct {
	ownerID    string
	req        domain.UploadRequest
	oldAsset   string // store-relative path of the asset being replaced, "" if none
	backupPath string // absolute path of the old asset's snapshot, "" if none

	newName string
	newAbs  string

	actions []rollbackAction
}

func (rc *runContext) push(name string, run func() error) {
	rc.actions = append(rc.actions, rollbackAction{name: name, run: run})
}

// UploadPipeline sequences validation, backup, move, integrity verification,
// optimization and finalization into an all-or-nothing operation against a
// filesystem that offers no native transactions.
type UploadPipeline struct {
	store        *storage.Store
	validator    *AssetValidator
	names        *NameGenerator
	backups      *BackupManager
	integrity    IntegrityChecker
	optimizer    *Optimizer
	publicPrefix string

	// ownerLocks serializes pipeline runs per owner id so two concurrent
	// replaces for the same category cannot interleave their
	// backup/move/finalize sequences.
	ownerLocks sync.Map
}

func NewUploadPipeline(
	store *storage.Store,
	validator *AssetValidator,
	names *NameGenerator,
	backups *BackupManager,
	integrity IntegrityChecker,
	optimizer *Optimizer,
	publicPrefix string,
) *UploadPipeline {
	return &UploadPipeline{
		store:        store,
		validator:    validator,
		names:        names,
		backups:      backups,
		integrity:    integrity,
		optimizer:    optimizer,
		publicPrefix: publicPrefix,
	}
}

// Process runs the full pipeline for one upload. oldAssetPath is the
// store-relative path of the asset currently owned by ownerID, or "" when
// the owner has none. The returned result is always structured; no error or
// panic crosses this boundary, and on failure the store is left in its
// pre-operation state.
func (p *UploadPipeline) Process(req domain.UploadRequest, ownerID, oldAssetPath string) (result domain.UploadResult) {
	if ownerID == "" {
		return domain.Failure(domain.CodeMissingOwnerID, "owner id is required")
	}

	mu := p.lockOwner(ownerID)
	defer mu.Unlock()

	rc := &runContext{ownerID: ownerID, req: req, oldAsset: oldAssetPath}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("owner", ownerID).Msg("upload pipeline panicked")
			p.rollback(rc)
			result = domain.Failure(domain.CodeInternalProcessingError, "unexpected error while processing the upload")
		}
	}()

	// VALIDATE. No mutation has happened yet, so failures need no rollback.
	if res := p.validator.Validate(req); !res.IsValid {
		return domain.ValidationFailure(domain.CodeFileValidationFailed, res.Errors)
	}
	if req.HasDimensions() {
		if res := p.validator.ValidateDimensions(req.Width, req.Height); !res.IsValid {
			return domain.ValidationFailure(domain.CodeDimensionValidationFailed, res.Errors)
		}
	}
	if rc.oldAsset != "" && !IsOwnedBy(ownerID, rc.oldAsset) {
		return domain.Failure(domain.CodeInvalidAssetAssociation,
			fmt.Sprintf("existing asset %q is not associated with owner %s", rc.oldAsset, ownerID))
	}

	p.backupExisting(rc)

	// GENERATE_NAME
	name, err := p.names.Generate(ownerID, req.OriginalFilename)
	if err != nil {
		p.rollback(rc)
		return domain.Failure(domain.CodeInternalProcessingError, "could not generate an asset name")
	}
	rc.newName = name
	abs, err := p.store.Abs(name)
	if err != nil {
		p.rollback(rc)
		return domain.Failure(domain.CodeInternalProcessingError, "could not resolve the target path")
	}
	rc.newAbs = abs

	// MOVE
	size, err := p.store.MoveIn(req.SourcePath, name)
	if err != nil {
		log.Error().Err(err).Str("owner", ownerID).Str("target", name).Msg("upload move failed")
		p.rollback(rc)
		return domain.Failure(domain.CodeFileMoveFailed, "could not move the uploaded file into the store")
	}
	rc.push("delete new asset", func() error {
		return p.store.Delete(name)
	})

	// VERIFY_INTEGRITY
	if err := p.integrity.Check(rc.newAbs); err != nil {
		log.Error().Err(err).Str("owner", ownerID).Str("target", name).Msg("integrity check failed")
		p.rollback(rc)
		return domain.Failure(domain.CodeIntegrityCheckFailed, "uploaded file failed the integrity check")
	}

	// OPTIMIZE is best-effort; the pipeline succeeds with or without it.
	var optimization *domain.OptimizationInfo
	if p.optimizer != nil {
		optimization = p.optimizer.Optimize(rc.newAbs)
		if optimization != nil {
			size = optimization.OptimizedSize
		}
	}

	p.finalize(rc)

	descriptor := domain.AssetDescriptor{
		Filename:     name,
		Path:         path.Join(p.publicPrefix, name),
		Size:         size,
		Optimization: optimization,
	}
	return descriptor.Result()
}

// backupExisting snapshots the asset being replaced, if any. Failures here
// are soft: the original file is untouched, so the pipeline proceeds and a
// later failure simply has no backup to restore from.
func (p *UploadPipeline) backupExisting(rc *runContext) {
	if rc.oldAsset == "" {
		return
	}
	oldAbs, err := p.store.Abs(rc.oldAsset)
	if err != nil || !p.store.Exists(rc.oldAsset) {
		return
	}

	backupPath, err := p.backups.Backup(oldAbs)
	if err != nil {
		log.Warn().Err(err).Str("owner", rc.ownerID).Str("asset", rc.oldAsset).Msg("could not back up existing asset")
		return
	}
	if backupPath == "" {
		return
	}
	rc.backupPath = backupPath
	rc.push("restore previous asset", func() error {
		return p.backups.Restore(backupPath, oldAbs)
	})
}

// finalize deletes the superseded old asset and its backup. Failures here
// are logged only: the new asset is already correctly in place, so the
// operation as a whole has succeeded.
func (p *UploadPipeline) finalize(rc *runContext) {
	if rc.oldAsset != "" && rc.oldAsset != rc.newName {
		if err := p.store.Delete(rc.oldAsset); err != nil {
			log.Warn().Err(err).Str("asset", rc.oldAsset).Msg("could not delete superseded asset")
		}
	}
	if rc.backupPath != "" {
		if err := p.backups.Remove(rc.backupPath); err != nil {
			log.Warn().Err(err).Str("backup", rc.backupPath).Msg("could not delete consumed backup")
		}
	}
}

// rollback executes the accumulated compensating actions in reverse order.
// Each action's failure is swallowed and logged, never escalated: raising
// from inside a rollback would mask the original failure and could leave
// the store worse off than the failure already has.
func (p *UploadPipeline) rollback(rc *runContext) {
	for i := len(rc.actions) - 1; i >= 0; i-- {
		action := rc.actions[i]
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn().Interface("panic", r).Str("action", action.name).Msg("rollback action panicked")
				}
			}()
			if err := action.run(); err != nil {
				log.Warn().Err(err).Str("action", action.name).Msg("rollback action failed")
			}
		}()
	}
	rc.actions = nil
}

func (p *UploadPipeline) lockOwner(ownerID string) *sync.Mutex {
	mu, _ := p.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock
}

// ReleaseOwnerLock drops the mutex held for an owner id so the lock table
// does not grow without bound. Only call this once the owner has been
// deleted: a concurrent Process for the same id would otherwise race a
// fresh mutex against the released one.
func (p *UploadPipeline) ReleaseOwnerLock(ownerID string) {
	p.ownerLocks.LoadAndDelete(ownerID)
}
