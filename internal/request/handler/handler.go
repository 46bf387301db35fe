package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/request"
	"github.com/incuhub/inventory-service/internal/request/dto"
	"go.uber.org/zap"
)

type RequestHandler struct {
	uc     request.UseCase
	logger *zap.Logger
}

func NewRequestHandler(uc request.UseCase, log *zap.Logger) *RequestHandler {
	return &RequestHandler{uc: uc, logger: log}
}

func (h *RequestHandler) Create(c *gin.Context) {
	var input dto.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.RequestedBy = c.GetString(middleware.CtxActorID)
	detail, err := h.uc.CreateDraft(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("create request failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *RequestHandler) Submit(c *gin.Context) {
	req, err := h.uc.Submit(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxActorID))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) Decide(c *gin.Context) {
	var input dto.DecideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ApproverID = c.GetString(middleware.CtxActorID)
	input.ApproverRole = c.GetString(middleware.CtxActorRole)
	detail, err := h.uc.Decide(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		// Partial allocation conflicts still return the detail body so
		// the reviewer sees which lines went back to pending.
		if detail != nil {
			c.JSON(httperr.Status(err), gin.H{"error": err.Error(), "request": detail})
			return
		}
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type deliveryInput struct {
	Status string `json:"status" binding:"required"`
}

func (h *RequestHandler) UpdateDelivery(c *gin.Context) {
	var input deliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := h.uc.UpdateDelivery(c.Request.Context(), c.Param("id"), input.Status, c.GetString(middleware.CtxActorID))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) Get(c *gin.Context) {
	detail, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *RequestHandler) List(c *gin.Context) {
	filters := &dto.RequestFilters{
		TeamID:   c.Query("team_id"),
		Status:   c.Query("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	rows, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list requests failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": rows, "total": total})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
