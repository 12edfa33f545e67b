package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/adapters/primary/http/dto"
	ports "civitai-archiver/internal/core/ports/output"
)

func (h *Handler) ListImages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.ImageListFilter{
		Username: c.Query("username"),
		Limit:    limit,
		Offset:   offset,
	}

	images, total, err := h.catalogSvc.ListImages(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list images failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ImageResponse, 0, len(images))
	for _, img := range images {
		items = append(items, dto.ToImageResponse(img))
	}

	c.JSON(http.StatusOK, dto.ListImagesResponse{
		Items:      items,
		Total:      total,
		PageSize:   limit,
		NextOffset: offset + len(items),
	})
}

func (h *Handler) GetImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image id"})
		return
	}

	image, err := h.catalogSvc.GetImage(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToImageResponse(image))
}
