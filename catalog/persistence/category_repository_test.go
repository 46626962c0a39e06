package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/openmerch/catalog/catalog/domain"
	_ "modernc.org/sqlite"
)

func setupTestCategoryDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`
		CREATE TABLE categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			image_path TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE category_translations (
			category_id TEXT NOT NULL,
			locale TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (category_id, locale)
		);
	`)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	return conn
}

func testCategory(id, name string) *domain.Category {
	now := time.Now().UTC()
	return &domain.Category{
		ID:        id,
		Name:      name,
		Slug:      name + "-slug",
		SortOrder: 1,
		Active:    true,
		UpdatedAt: now,
		CreatedAt: now,
	}
}

func TestCategoryRepository_CreateAndFind(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))
	ctx := context.Background()

	cat := testCategory("1", "shoes")
	if err := repo.Create(ctx, cat); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Find(ctx, "1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Name != "shoes" || got.Slug != "shoes-slug" || !got.Active {
		t.Errorf("Find = %+v", got)
	}
}

func TestCategoryRepository_FindMissing(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))

	_, err := repo.Find(context.Background(), "nope")
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Find error = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryRepository_FindAllOrdering(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))
	ctx := context.Background()

	a := testCategory("a", "alpha")
	a.SortOrder = 2
	b := testCategory("b", "beta")
	b.SortOrder = 1
	for _, cat := range []*domain.Category{a, b} {
		if err := repo.Create(ctx, cat); err != nil {
			t.Fatalf("Create(%s): %v", cat.ID, err)
		}
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].ID != "b" || all[1].ID != "a" {
		t.Errorf("FindAll order wrong: %v, %v", all[0].ID, all[1].ID)
	}
}

func TestCategoryRepository_UpdateImagePath(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testCategory("1", "shoes")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateImagePath(ctx, "1", "cat_1_1000_1.jpg"); err != nil {
		t.Fatalf("UpdateImagePath: %v", err)
	}

	got, err := repo.Find(ctx, "1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ImagePath != "cat_1_1000_1.jpg" {
		t.Errorf("ImagePath = %q", got.ImagePath)
	}

	if err := repo.UpdateImagePath(ctx, "ghost", "x.jpg"); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("UpdateImagePath on missing id = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryRepository_DeleteRemovesTranslations(t *testing.T) {
	conn := setupTestCategoryDB(t)
	repo := NewCategoryRepository(conn)
	ctx := context.Background()

	if err := repo.Create(ctx, testCategory("1", "shoes")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	tr := &domain.CategoryTranslation{CategoryID: "1", Locale: "de", Name: "Schuhe"}
	if err := repo.SaveTranslation(ctx, tr); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}

	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM category_translations").Scan(&count); err != nil {
		t.Fatalf("count translations: %v", err)
	}
	if count != 0 {
		t.Errorf("translations survived category delete: %d rows", count)
	}

	if _, err := repo.Find(ctx, "1"); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Find after delete = %v, want ErrCategoryNotFound", err)
	}
}

func TestCategoryRepository_TranslationUpsert(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testCategory("1", "shoes")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first := &domain.CategoryTranslation{CategoryID: "1", Locale: "fr", Name: "Chaussures"}
	if err := repo.SaveTranslation(ctx, first); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}
	second := &domain.CategoryTranslation{CategoryID: "1", Locale: "fr", Name: "Souliers"}
	if err := repo.SaveTranslation(ctx, second); err != nil {
		t.Fatalf("SaveTranslation upsert: %v", err)
	}

	got, err := repo.Translations(ctx, "1")
	if err != nil {
		t.Fatalf("Translations: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Souliers" {
		t.Errorf("Translations = %+v, want single upserted row", got)
	}
}

func TestCategoryRepository_ListIDs(t *testing.T) {
	repo := NewCategoryRepository(setupTestCategoryDB(t))
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if err := repo.Create(ctx, testCategory(id, "cat-"+id)); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("ListIDs returned %d ids, want 3", len(ids))
	}
}
