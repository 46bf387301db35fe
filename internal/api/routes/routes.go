package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/api/middleware"
	assignH "github.com/incuhub/inventory-service/internal/assignment/handler"
	consumeH "github.com/incuhub/inventory-service/internal/consumption/handler"
	forecastH "github.com/incuhub/inventory-service/internal/forecast/handler"
	ledgerH "github.com/incuhub/inventory-service/internal/ledger/handler"
	maintH "github.com/incuhub/inventory-service/internal/maintenance/handler"
	requestH "github.com/incuhub/inventory-service/internal/request/handler"
)

type Handlers struct {
	Inventory   *ledgerH.InventoryHandler
	Assignment  *assignH.AssignmentHandler
	Consumption *consumeH.ConsumptionHandler
	Maintenance *maintH.MaintenanceHandler
	Request     *requestH.RequestHandler
	Forecast    *forecastH.ForecastHandler
}

func SetupRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")

	// Reads need no identity.
	apiV1.GET("/items", h.Inventory.ListItems)
	apiV1.GET("/items/:id", h.Inventory.GetItem)
	apiV1.GET("/items/sku/:sku", h.Inventory.GetItemBySKU)
	apiV1.GET("/assignments", h.Assignment.ListAssignments)
	apiV1.GET("/reservations", h.Assignment.ListReservations)
	apiV1.GET("/consumptions", h.Consumption.List)
	apiV1.GET("/maintenance/due", h.Maintenance.Due)
	apiV1.GET("/requests", h.Request.List)
	apiV1.GET("/requests/:id", h.Request.Get)
	apiV1.GET("/forecast/report", h.Forecast.Report)

	// Mutations carry the acting user in identity headers.
	mutating := apiV1.Group("/")
	mutating.Use(middleware.RequireActor())
	{
		mutating.POST("/items", h.Inventory.CreateItem)
		mutating.POST("/items/:id/restock", h.Inventory.Restock)
		mutating.POST("/items/:id/maintenance/hold", h.Maintenance.PlaceHold)
		mutating.POST("/items/:id/maintenance/complete", h.Maintenance.Complete)

		mutating.POST("/assignments", h.Assignment.Assign)
		mutating.POST("/assignments/:id/return", h.Assignment.Return)
		mutating.POST("/reservations", h.Assignment.Reserve)
		mutating.POST("/reservations/:id/confirm", h.Assignment.Confirm)
		mutating.POST("/reservations/:id/cancel", h.Assignment.Cancel)

		mutating.POST("/consumptions", h.Consumption.Distribute)
		mutating.POST("/consumptions/batch", h.Consumption.DistributeBatch)

		mutating.POST("/requests", h.Request.Create)
		mutating.POST("/requests/:id/submit", h.Request.Submit)
		mutating.POST("/requests/:id/decisions", h.Request.Decide)
		mutating.PATCH("/requests/:id/delivery", h.Request.UpdateDelivery)

		mutating.POST("/forecast/drafts", h.Forecast.AutoDraft)
	}

	return router
}
