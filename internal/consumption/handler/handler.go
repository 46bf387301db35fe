package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/consumption"
	"github.com/incuhub/inventory-service/internal/consumption/dto"
	"go.uber.org/zap"
)

type ConsumptionHandler struct {
	uc     consumption.UseCase
	logger *zap.Logger
}

func NewConsumptionHandler(uc consumption.UseCase, log *zap.Logger) *ConsumptionHandler {
	return &ConsumptionHandler{uc: uc, logger: log}
}

func (h *ConsumptionHandler) Distribute(c *gin.Context) {
	var input dto.DistributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Actor = c.GetString(middleware.CtxActorID)
	logEntry, err := h.uc.Distribute(c.Request.Context(), &input)
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, logEntry)
}

func (h *ConsumptionHandler) DistributeBatch(c *gin.Context) {
	var inputs []dto.DistributeInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := c.GetString(middleware.CtxActorID)
	for i := range inputs {
		inputs[i].Actor = actor
	}
	results := h.uc.DistributeBatch(c.Request.Context(), inputs)
	// Multi-status: some lines may have failed their stock check.
	c.JSON(http.StatusMultiStatus, gin.H{"results": results})
}

func (h *ConsumptionHandler) List(c *gin.Context) {
	filters := &dto.LogFilters{
		ItemID: c.Query("item_id"),
		TeamID: c.Query("team_id"),
	}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		filters.Since = &t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "until must be RFC3339"})
			return
		}
		filters.Until = &t
	}
	rows, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list consumption logs failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": rows})
}
