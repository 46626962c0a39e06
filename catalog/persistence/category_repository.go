package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openmerch/catalog/catalog/domain"
	"github.com/openmerch/catalog/shared/db"
)

var _ domain.CategoryRepository = (*SQLiteCategoryRepository)(nil)

// SQLiteCategoryRepository implements domain.CategoryRepository using SQLite.
type SQLiteCategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(sqlDB *sql.DB) *SQLiteCategoryRepository {
	return &SQLiteCategoryRepository{
		db: sqlDB,
	}
}

const findCategoryQuery = `
	SELECT id, name, slug, sort_order, active, image_path, updated_at, created_at
	FROM categories
	WHERE id = ?
`

func (r *SQLiteCategoryRepository) Find(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, fmt.Errorf("category id cannot be empty")
	}

	var row categoryRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, findCategoryQuery, id).Scan(
		&row.ID,
		&row.Name,
		&row.Slug,
		&row.SortOrder,
		&row.Active,
		&row.ImagePath,
		&row.UpdatedAt,
		&row.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return row.toDomain(), nil
}

const findAllCategoriesQuery = `
	SELECT id, name, slug, sort_order, active, image_path, updated_at, created_at
	FROM categories
	ORDER BY sort_order ASC, created_at ASC
`

func (r *SQLiteCategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, findAllCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		var row categoryRow
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Slug,
			&row.SortOrder,
			&row.Active,
			&row.ImagePath,
			&row.UpdatedAt,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, row.toDomain())
	}
	return categories, rows.Err()
}

func (r *SQLiteCategoryRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, "SELECT id FROM categories")
	if err != nil {
		return nil, fmt.Errorf("failed to list category ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const insertCategoryQuery = `
	INSERT INTO categories (id, name, slug, sort_order, active, image_path, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (r *SQLiteCategoryRepository) Create(ctx context.Context, cat *domain.Category) error {
	if cat == nil {
		return fmt.Errorf("category cannot be nil")
	}
	if cat.ID == "" {
		return fmt.Errorf("category id cannot be empty")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, insertCategoryQuery,
		cat.ID,
		cat.Name,
		cat.Slug,
		cat.SortOrder,
		cat.Active,
		cat.ImagePath,
		cat.UpdatedAt,
		cat.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

const updateCategoryQuery = `
	UPDATE categories
	SET name = ?, slug = ?, sort_order = ?, active = ?, updated_at = ?
	WHERE id = ?
`

func (r *SQLiteCategoryRepository) Update(ctx context.Context, cat *domain.Category) error {
	if cat == nil {
		return fmt.Errorf("category cannot be nil")
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, updateCategoryQuery,
		cat.Name,
		cat.Slug,
		cat.SortOrder,
		cat.Active,
		cat.UpdatedAt,
		cat.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

const updateImagePathQuery = `
	UPDATE categories SET image_path = ?, updated_at = ? WHERE id = ?
`

func (r *SQLiteCategoryRepository) UpdateImagePath(ctx context.Context, id string, path string) error {
	if id == "" {
		return fmt.Errorf("category id cannot be empty")
	}

	res, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, updateImagePathQuery, path, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update image path: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category and its translations within a transaction.
func (r *SQLiteCategoryRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("category id cannot be empty")
	}

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		if _, err := executor.ExecContext(txCtx, "DELETE FROM category_translations WHERE category_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete category translations: %w", err)
		}

		res, err := executor.ExecContext(txCtx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return domain.ErrCategoryNotFound
		}
		return nil
	})
}

const upsertTranslationQuery = `
	INSERT INTO category_translations (category_id, locale, name)
	VALUES (?, ?, ?)
	ON CONFLICT(category_id, locale) DO UPDATE SET
		name = excluded.name
`

func (r *SQLiteCategoryRepository) SaveTranslation(ctx context.Context, tr *domain.CategoryTranslation) error {
	if tr == nil {
		return fmt.Errorf("translation cannot be nil")
	}
	if tr.CategoryID == "" || tr.Locale == "" {
		return fmt.Errorf("translation requires a category id and a locale")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, upsertTranslationQuery,
		tr.CategoryID,
		tr.Locale,
		tr.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert translation: %w", err)
	}
	return nil
}

const translationsQuery = `
	SELECT category_id, locale, name
	FROM category_translations
	WHERE category_id = ?
	ORDER BY locale ASC
`

func (r *SQLiteCategoryRepository) Translations(ctx context.Context, categoryID string) ([]*domain.CategoryTranslation, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, translationsQuery, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	translations := []*domain.CategoryTranslation{}
	for rows.Next() {
		tr := &domain.CategoryTranslation{}
		if err := rows.Scan(&tr.CategoryID, &tr.Locale, &tr.Name); err != nil {
			return nil, fmt.Errorf("failed to scan translation row: %w", err)
		}
		translations = append(translations, tr)
	}
	return translations, rows.Err()
}

// categoryRow is a private struct used to scan database rows.
type categoryRow struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
	Active    bool
	ImagePath string
	UpdatedAt sql.NullTime
	CreatedAt sql.NullTime
}

// toDomain converts a categoryRow to a domain.Category, handling nullable times.
func (cr *categoryRow) toDomain() *domain.Category {
	cat := &domain.Category{
		ID:        cr.ID,
		Name:      cr.Name,
		Slug:      cr.Slug,
		SortOrder: cr.SortOrder,
		Active:    cr.Active,
		ImagePath: cr.ImagePath,
	}

	if cr.UpdatedAt.Valid {
		cat.UpdatedAt = cr.UpdatedAt.Time
	}
	if cr.CreatedAt.Valid {
		cat.CreatedAt = cr.CreatedAt.Time
	}

	return cat
}
