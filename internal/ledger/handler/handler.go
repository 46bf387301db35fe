package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/httperr"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	"github.com/incuhub/inventory-service/internal/ledger"
	"github.com/incuhub/inventory-service/internal/ledger/dto"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     ledger.UseCase
	logger *zap.Logger
}

func NewInventoryHandler(uc ledger.UseCase, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var input dto.CreateItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.uc.CreateItem(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("create item failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.uc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) GetItemBySKU(c *gin.Context) {
	item, err := h.uc.GetItemBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	filters := &dto.ItemFilters{
		SKU:      c.Query("sku"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		LowStock: c.Query("low_stock") == "true",
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("consumable"); raw != "" {
		v := raw == "true"
		filters.Consumable = &v
	}
	items, total, err := h.uc.ListItems(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("list items failed", zap.Error(err))
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *InventoryHandler) Restock(c *gin.Context) {
	var input dto.RestockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.uc.Restock(c.Request.Context(), c.Param("id"), input.Quantity, c.GetString(middleware.CtxActorID))
	if err != nil {
		httperr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
