package handlers

import (
	"github.com/gin-gonic/gin"

	"civitai-archiver/internal/core/services"
)

type Handler struct {
	catalogSvc *services.CatalogService
	statsSvc   *services.StatsService
}

func New(catalogSvc *services.CatalogService, statsSvc *services.StatsService) *Handler {
	return &Handler{
		catalogSvc: catalogSvc,
		statsSvc:   statsSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Models
	r.GET("/models", h.ListModels)
	r.GET("/models/:id", h.GetModel)

	// Images
	r.GET("/images", h.ListImages)
	r.GET("/images/:id", h.GetImage)

	// Archive stats
	r.GET("/stats", h.GetStats)
}
