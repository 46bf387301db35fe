package dto

import "time"

type CreateItemInput struct {
	SKU                      string     `json:"sku" binding:"required"`
	Name                     string     `json:"name" binding:"required"`
	Barcode                  *string    `json:"barcode"`
	Category                 string     `json:"category"`
	IsConsumable             bool       `json:"is_consumable"`
	InitialQuantity          int        `json:"initial_quantity"`
	MinStockLevel            int        `json:"min_stock_level"`
	ReorderQuantity          int        `json:"reorder_quantity"`
	TypicalWeeklyConsumption float64    `json:"typical_weekly_consumption"`
	PurchaseDate             *time.Time `json:"purchase_date"`
	WarrantyUntil            *time.Time `json:"warranty_until"`
	MaintenanceIntervalDays  int        `json:"maintenance_interval_days"`
}

type RestockInput struct {
	Quantity int    `json:"quantity" binding:"required"`
	Actor    string `json:"-"`
}
