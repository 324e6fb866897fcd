package sealing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/seal", h.Seal)
}

func (h *Handler) Seal(c *gin.Context) {
	var req SealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Rejected seal request", zap.Error(err))
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}

	result, err := h.service.Seal(c.Request.Context(), *req.Payload)
	if err != nil {
		status, msg := Describe(err)
		c.String(status, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": result.URL})
}
