package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/assignment"
	"github.com/incuhub/inventory-service/internal/assignment/dto"
	"go.uber.org/zap"
)

type AssignmentHandler struct {
	uc     assignment.UseCase
	logger *zap.Logger
}

func NewAssignmentHandler(uc assignment.UseCase, log *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{uc: uc, logger: log}
}

func (h *AssignmentHandler) Assign(c *gin.Context) {
	var input dto.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Actor = c.GetString(middleware.CtxActorID)
	a, err := h.uc.Assign(c.Request.Context(), &input)
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AssignmentHandler) Return(c *gin.Context) {
	a, err := h.uc.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	filters := &dto.AssignmentFilters{
		TeamID:     c.Query("team_id"),
		ItemID:     c.Query("item_id"),
		ActiveOnly: c.Query("active") == "true",
	}
	rows, err := h.uc.ListAssignments(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list assignments failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": rows})
}

func (h *AssignmentHandler) Reserve(c *gin.Context) {
	var input dto.ReserveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.TTLMillis > 0 {
		input.TTL = time.Duration(input.TTLMillis) * time.Millisecond
	}
	rv, err := h.uc.Reserve(c.Request.Context(), &input)
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *AssignmentHandler) Confirm(c *gin.Context) {
	a, err := h.uc.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) Cancel(c *gin.Context) {
	if err := h.uc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		httperr.JSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AssignmentHandler) ListReservations(c *gin.Context) {
	filters := &dto.ReservationFilters{
		TeamID: c.Query("team_id"),
		ItemID: c.Query("item_id"),
		Status: c.Query("status"),
	}
	rows, err := h.uc.ListReservations(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list reservations failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": rows})
}
