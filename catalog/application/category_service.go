package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/domain"
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryService is the owning CRUD service for categories. It confirms
// ownership before any asset operation, persists asset paths after
// successful pipeline runs, and keeps the metadata cache coherent by
// invalidating it on every mutation.
type CategoryService struct {
	repo     domain.CategoryRepository
	pipeline *UploadPipeline
	scanner  *OrphanScanner
	cache    *MetadataCache
}

func NewCategoryService(
	repo domain.CategoryRepository,
	pipeline *UploadPipeline,
	scanner *OrphanScanner,
	cache *MetadataCache,
) *CategoryService {
	return &CategoryService{repo: repo, pipeline: pipeline, scanner: scanner, cache: cache}
}

// Get retrieves a category, serving from the cache when possible.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if cached := s.cache.Get(id); cached != nil {
		return cached, nil
	}

	cat, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, cat)
	return cat, nil
}

// List returns every category ordered by sort order.
func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.FindAll(ctx)
}

// Create inserts a new category. An empty slug is derived from the name.
func (s *CategoryService) Create(ctx context.Context, cat *domain.Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if cat.Slug == "" {
		cat.Slug = Slugify(cat.Name)
	}
	now := time.Now().UTC()
	cat.CreatedAt = now
	cat.UpdatedAt = now

	if err := s.repo.Create(ctx, cat); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// Update replaces the mutable fields of a category.
func (s *CategoryService) Update(ctx context.Context, cat *domain.Category) error {
	existing, err := s.repo.Find(ctx, cat.ID)
	if err != nil {
		return err
	}
	if cat.Slug == "" {
		cat.Slug = Slugify(cat.Name)
	}
	cat.ImagePath = existing.ImagePath
	cat.CreatedAt = existing.CreatedAt
	cat.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, cat); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// Delete removes a category, then sweeps every asset file provably owned by
// it. Asset cleanup failures do not resurrect the category record; they are
// logged and the remaining files show up in later orphan scans.
func (s *CategoryService) Delete(ctx context.Context, id string) (CleanupResult, error) {
	if _, err := s.repo.Find(ctx, id); err != nil {
		return CleanupResult{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return CleanupResult{}, fmt.Errorf("delete category: %w", err)
	}
	s.cache.Invalidate()

	res, err := s.scanner.Cleanup(id)
	if err != nil {
		log.Warn().Err(err).Str("category", id).Msg("asset cleanup after delete failed")
	}
	s.pipeline.ReleaseOwnerLock(id)
	return res, nil
}

// UploadImage runs the upload pipeline for a category and persists the new
// asset path on success.
func (s *CategoryService) UploadImage(ctx context.Context, id string, req domain.UploadRequest) domain.UploadResult {
	if id == "" {
		return domain.Failure(domain.CodeMissingOwnerID, "category id is required")
	}

	cat, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.Failure(domain.CodeOwnerNotFound, fmt.Sprintf("category %s does not exist", id))
		}
		log.Error().Err(err).Str("category", id).Msg("owner lookup failed")
		return domain.Failure(domain.CodeInternalProcessingError, "could not look up the category")
	}

	result := s.pipeline.Process(req, id, cat.ImagePath)
	if !result.Success {
		return result
	}

	if err := s.repo.UpdateImagePath(ctx, id, result.Filename); err != nil {
		// The pipeline already finalized: the old asset and its backup are
		// gone. Deleting the new file too would leave nothing to recover
		// from, so keep it on disk where the orphan report will surface it.
		log.Error().Err(err).Str("category", id).Str("asset", result.Filename).
			Msg("could not persist asset path; file left in store for recovery")
		return domain.Failure(domain.CodeInternalProcessingError, "could not persist the new asset path")
	}

	s.cache.Invalidate()
	return result
}

// DeleteImage removes a category's current asset and clears the association.
func (s *CategoryService) DeleteImage(ctx context.Context, id string) error {
	cat, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}
	if cat.ImagePath == "" {
		return nil
	}
	if !IsOwnedBy(id, cat.ImagePath) {
		return fmt.Errorf("asset %q is not associated with category %s", cat.ImagePath, id)
	}

	if err := s.repo.UpdateImagePath(ctx, id, ""); err != nil {
		return fmt.Errorf("clear asset path: %w", err)
	}
	if err := s.pipeline.store.Delete(cat.ImagePath); err != nil {
		log.Warn().Err(err).Str("asset", cat.ImagePath).Msg("could not delete asset file")
	}
	s.cache.Invalidate()
	return nil
}

// Orphans lists store files whose encoded owner no longer exists.
func (s *CategoryService) Orphans(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category ids: %w", err)
	}
	return s.scanner.FindUnowned(ids)
}

// SetTranslation upserts a per-locale name for a category.
func (s *CategoryService) SetTranslation(ctx context.Context, tr *domain.CategoryTranslation) error {
	if _, err := s.repo.Find(ctx, tr.CategoryID); err != nil {
		return err
	}
	if err := s.repo.SaveTranslation(ctx, tr); err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// Translations lists the per-locale names of a category.
func (s *CategoryService) Translations(ctx context.Context, id string) ([]*domain.CategoryTranslation, error) {
	return s.repo.Translations(ctx, id)
}

// Slugify converts a display name into a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSanitizer.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
