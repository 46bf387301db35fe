package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/maintenance"
	"go.uber.org/zap"
)

type MaintenanceHandler struct {
	uc     maintenance.UseCase
	logger *zap.Logger
}

func NewMaintenanceHandler(uc maintenance.UseCase, log *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{uc: uc, logger: log}
}

func (h *MaintenanceHandler) PlaceHold(c *gin.Context) {
	item, err := h.uc.PlaceHold(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxActorID))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type completeInput struct {
	// Zero means the service clock.
	PerformedAt *time.Time `json:"performed_at"`
}

func (h *MaintenanceHandler) Complete(c *gin.Context) {
	var input completeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var performedAt time.Time
	if input.PerformedAt != nil {
		performedAt = *input.PerformedAt
	}
	item, err := h.uc.Complete(c.Request.Context(), c.Param("id"), performedAt, c.GetString(middleware.CtxActorID))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MaintenanceHandler) Due(c *gin.Context) {
	items, err := h.uc.Due(c.Request.Context())
	if err != nil {
		h.logger.Error("list due maintenance failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
