package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/openmerch/catalog/catalog/application"
)

// NewApi registers every route on the given engine.
func NewApi(router *gin.Engine, service *application.CategoryService, backups *application.BackupManager, storeRoot string) {
	h := &CategoryHandler{service: service, storeRoot: storeRoot}
	admin := &AdminHandler{service: service, backups: backups}

	categoriesV1 := router.Group("categories/v1")
	{
		categoriesV1.GET("/", h.List)
		categoriesV1.GET("/:categoryId", h.Get)
		categoriesV1.POST("/", h.Create)
		categoriesV1.PUT("/:categoryId", h.Update)
		categoriesV1.DELETE("/:categoryId", h.Delete)
		categoriesV1.POST("/:categoryId/image", h.UploadImage)
		categoriesV1.DELETE("/:categoryId/image", h.DeleteImage)
		categoriesV1.GET("/:categoryId/translations", h.Translations)
		categoriesV1.PUT("/:categoryId/translations/:locale", h.SetTranslation)
	}

	adminV1 := router.Group("admin/v1")
	{
		adminV1.GET("/orphans", admin.Orphans)
		adminV1.POST("/backups/sweep", admin.SweepBackups)
	}

	// Assets are served one file at a time so the backup subdirectory and
	// anything else that does not match the asset grammar stays private.
	router.GET("/media/categories/:filename", h.ServeAsset)
}
