package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/application"
)

// AdminHandler exposes human-reviewed maintenance operations: orphan
// reporting and backup sweeps.
type AdminHandler struct {
	service *application.CategoryService
	backups *application.BackupManager
}

// Orphans reports store files whose encoded owner no longer exists. The
// response is a report; nothing is deleted.
func (h *AdminHandler) Orphans(c *gin.Context) {
	orphans, err := h.service.Orphans(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("orphan scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not scan for orphans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orphans": orphans, "count": len(orphans)})
}

// SweepBackups removes backup files older than the given maxAge (query
// parameter, Go duration syntax, default 24h).
func (h *AdminHandler) SweepBackups(c *gin.Context) {
	maxAge := application.DefaultBackupMaxAge
	if raw := c.Query("maxAge"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxAge must be a duration like 24h"})
			return
		}
		maxAge = parsed
	}

	removed := h.backups.Sweep(maxAge)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
