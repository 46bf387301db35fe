package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/forecast"
	"github.com/incuhub/inventory-service/internal/forecast/dto"
	"go.uber.org/zap"
)

type ForecastHandler struct {
	uc     forecast.UseCase
	logger *zap.Logger
}

func NewForecastHandler(uc forecast.UseCase, log *zap.Logger) *ForecastHandler {
	return &ForecastHandler{uc: uc, logger: log}
}

func (h *ForecastHandler) Report(c *gin.Context) {
	opts := &dto.ReportOptions{
		WindowDays:    queryInt(c, "window_days"),
		LookAheadDays: queryInt(c, "lookahead_days"),
	}
	report, err := h.uc.Report(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("forecast report failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": report})
}

type autoDraftInput struct {
	WindowDays    int    `json:"window_days"`
	LookAheadDays int    `json:"lookahead_days"`
	TeamID        string `json:"team_id"`
}

func (h *ForecastHandler) AutoDraft(c *gin.Context) {
	var input autoDraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := h.uc.AutoDraft(c.Request.Context(), &dto.AutoDraftOptions{
		WindowDays:    input.WindowDays,
		LookAheadDays: input.LookAheadDays,
		TeamID:        input.TeamID,
		Actor:         c.GetString(middleware.CtxActorID),
	})
	if err != nil {
		h.logger.Error("auto draft failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"drafts": results})
}

func queryInt(c *gin.Context, key string) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return 0
}
