package rest

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/application"
	"github.com/openmerch/catalog/catalog/domain"
)

// CategoryHandler exposes the category CRUD surface and the image upload
// entry point over HTTP.
type CategoryHandler struct {
	service   *application.CategoryService
	storeRoot string
}

type categoryPayload struct {
	Name      string `json:"name" binding:"required"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sortOrder"`
	Active    *bool  `json:"active"`
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list categories failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}
	c.JSON(http.StatusOK, toCategoryViews(categories))
}

func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.service.Get(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		log.Error().Err(err).Str("category", c.Param("categoryId")).Msg("get category failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load category"})
		return
	}
	c.JSON(http.StatusOK, toCategoryView(cat))
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	cat := &domain.Category{
		ID:        uuid.NewString(),
		Name:      payload.Name,
		Slug:      payload.Slug,
		SortOrder: payload.SortOrder,
		Active:    active,
	}
	if err := h.service.Create(c.Request.Context(), cat); err != nil {
		log.Error().Err(err).Msg("create category failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create category"})
		return
	}
	c.JSON(http.StatusCreated, toCategoryView(cat))
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	cat := &domain.Category{
		ID:        c.Param("categoryId"),
		Name:      payload.Name,
		Slug:      payload.Slug,
		SortOrder: payload.SortOrder,
		Active:    active,
	}
	if err := h.service.Update(c.Request.Context(), cat); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		log.Error().Err(err).Str("category", cat.ID).Msg("update category failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update category"})
		return
	}
	c.JSON(http.StatusOK, toCategoryView(cat))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		log.Error().Err(err).Str("category", c.Param("categoryId")).Msg("delete category failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleanedCount": res.CleanedCount, "totalFound": res.TotalFound})
}

// UploadImage accepts a multipart upload, stages it in a temp file and runs
// the asset pipeline for the category.
func (h *CategoryHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
		return
	}

	tmp, err := os.CreateTemp("", "catalog-upload-*")
	if err != nil {
		log.Error().Err(err).Msg("could not create staging file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stage upload"})
		return
	}
	tmp.Close()
	if err := c.SaveUploadedFile(fileHeader, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		log.Error().Err(err).Msg("could not save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stage upload"})
		return
	}

	req := domain.UploadRequest{
		SourcePath:       tmp.Name(),
		OriginalFilename: filepath.Base(fileHeader.Filename),
		MimeType:         fileHeader.Header.Get("Content-Type"),
		Size:             fileHeader.Size,
	}
	// Geometry is best-effort; validation of dimensions only applies when
	// the image could actually be decoded.
	if w, ht, err := application.DecodeDimensions(tmp.Name()); err == nil {
		req.Width, req.Height = w, ht
	}

	result := h.service.UploadImage(c.Request.Context(), c.Param("categoryId"), req)
	if !result.Success {
		os.Remove(tmp.Name())
		c.JSON(statusForCode(result.Code), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CategoryHandler) DeleteImage(c *gin.Context) {
	id := c.Param("categoryId")
	if err := h.service.DeleteImage(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		log.Error().Err(err).Str("category", id).Msg("delete image failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete image"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) Translations(c *gin.Context) {
	translations, err := h.service.Translations(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		log.Error().Err(err).Msg("list translations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list translations"})
		return
	}
	c.JSON(http.StatusOK, translations)
}

func (h *CategoryHandler) SetTranslation(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tr := &domain.CategoryTranslation{
		CategoryID: c.Param("categoryId"),
		Locale:     c.Param("locale"),
		Name:       payload.Name,
	}
	if err := h.service.SetTranslation(c.Request.Context(), tr); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return
		}
		log.Error().Err(err).Msg("save translation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save translation"})
		return
	}
	c.JSON(http.StatusOK, tr)
}

// ServeAsset serves a store file, but only when its name parses as a
// generated asset name. Backups and stray files are not reachable here.
func (h *CategoryHandler) ServeAsset(c *gin.Context) {
	filename := c.Param("filename")
	if application.OwnerOf(filename) == "" {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(filepath.Join(h.storeRoot, filename))
}

func statusForCode(code string) int {
	switch code {
	case domain.CodeFileValidationFailed,
		domain.CodeDimensionValidationFailed,
		domain.CodeMissingOwnerID:
		return http.StatusBadRequest
	case domain.CodeOwnerNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidAssetAssociation:
		return http.StatusConflict
	case domain.CodeFileMoveFailed,
		domain.CodeIntegrityCheckFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type categoryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sortOrder"`
	Active    bool   `json:"active"`
	ImagePath string `json:"imagePath,omitempty"`
}

func toCategoryView(cat *domain.Category) categoryView {
	return categoryView{
		ID:        cat.ID,
		Name:      cat.Name,
		Slug:      cat.Slug,
		SortOrder: cat.SortOrder,
		Active:    cat.Active,
		ImagePath: cat.ImagePath,
	}
}

func toCategoryViews(categories []*domain.Category) []categoryView {
	views := make([]categoryView, 0, len(categories))
	for _, cat := range categories {
		views = append(views, toCategoryView(cat))
	}
	return views
}
