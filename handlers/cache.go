package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"netdash/services"
)

type CacheHandlers struct {
	cache *services.SnapshotCache
}

func NewCacheHandlers(cache *services.SnapshotCache) *CacheHandlers {
	return &CacheHandlers{
		cache: cache,
	}
}

// GetCacheStatus reports where snapshots are held and how many there are
func (h *CacheHandlers) GetCacheStatus(c echo.Context) error {
	mode := h.cache.GetCacheMode()

	response := map[string]interface{}{
		"mode":            string(mode),
		"redis_connected": mode == services.CacheModeRedis,
		"stats":           h.cache.GetCacheStats(),
	}

	return c.JSON(http.StatusOK, response)
}

// ClearCache drops every cached snapshot; the next poll repopulates it
func (h *CacheHandlers) ClearCache(c echo.Context) error {
	if err := h.cache.ClearCache(); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Cache cleared successfully",
	})
}
