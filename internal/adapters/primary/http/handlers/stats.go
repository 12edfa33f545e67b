package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/adapters/primary/http/dto"
)

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.statsSvc.Collect(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("collect stats failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsResponse(stats))
}
