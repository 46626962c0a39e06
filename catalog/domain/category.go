package domain

import (
	"context"
	"time"
)

// Category is a storefront category. Each category owns at most one image
// asset; ImagePath is the store-relative path of that asset, or empty when
// no image has been assigned.
type Category struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
	Active    bool
	ImagePath string
	UpdatedAt time.Time
	CreatedAt time.Time
}

// CategoryTranslation is a per-locale display name for a category.
type CategoryTranslation struct {
	CategoryID string
	Locale     string
	Name       string
}

type CategoryRepository interface {
	// Find retrieves a category by id. Returns ErrCategoryNotFound when no
	// row exists.
	Find(ctx context.Context, id string) (*Category, error)

	// FindAll lists every category ordered by sort order.
	FindAll(ctx context.Context) ([]*Category, error)

	// ListIDs returns the ids of all live categories.
	ListIDs(ctx context.Context) ([]string, error)

	// Create inserts a new category record.
	Create(ctx context.Context, cat *Category) error

	// Update replaces the mutable fields of a category record.
	Update(ctx context.Context, cat *Category) error

	// UpdateImagePath persists the store-relative asset path for a category.
	// An empty path clears the association.
	UpdateImagePath(ctx context.Context, id string, path string) error

	// Delete removes a category and its translations.
	Delete(ctx context.Context, id string) error

	// SaveTranslation upserts a per-locale name for a category.
	SaveTranslation(ctx context.Context, tr *CategoryTranslation) error

	// Translations lists every translation for a category.
	Translations(ctx context.Context, categoryID string) ([]*CategoryTranslation, error)
}
