package model

import "time"

// Item status labels. Status is derived from the quantity fields and
// recomputed on every mutation; it is never set directly by callers.
const (
	ItemStatusAvailable   = "available"
	ItemStatusLowStock    = "low_stock"
	ItemStatusOutOfStock  = "out_of_stock"
	ItemStatusMaintenance = "maintenance"
)

// Reservation lifecycle statuses.
const (
	ReservationHeld      = "held"
	ReservationConfirmed = "confirmed"
	ReservationExpired   = "expired"
	ReservationCancelled = "cancelled"
)

type InventoryItem struct {
	ID           string  `db:"id"`
	SKU          string  `db:"sku"`
	Name         string  `db:"name"`
	Barcode      *string `db:"barcode"`
	Category     string  `db:"category"`
	IsConsumable bool    `db:"is_consumable"`

	TotalQuantity     int `db:"total_quantity"`
	AvailableQuantity int `db:"available_quantity"`
	ReservedQuantity  int `db:"reserved_quantity"`
	ConsumedQuantity  int `db:"consumed_quantity"`

	MinStockLevel   int `db:"min_stock_level"`
	ReorderQuantity int `db:"reorder_quantity"`
	// Fallback consumption rate (units per week) used by the forecaster
	// when an item has no consumption history.
	TypicalWeeklyConsumption float64 `db:"typical_weekly_consumption"`

	Status string `db:"status"`

	PurchaseDate        *time.Time `db:"purchase_date"`
	WarrantyUntil       *time.Time `db:"warranty_until"`
	MaintenanceInterval int        `db:"maintenance_interval_days"`
	LastMaintenance     *time.Time `db:"last_maintenance"`
	NextMaintenance     *time.Time `db:"next_maintenance"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UnderMaintenance reports whether the item carries a maintenance hold.
// The hold removes the full stock from available capacity until the
// service is logged as performed.
func (i *InventoryItem) UnderMaintenance() bool {
	return i.Status == ItemStatusMaintenance
}

type InventoryAssignment struct {
	ID         string     `db:"id"`
	ItemID     string     `db:"item_id"`
	TeamID     string     `db:"team_id"`
	Quantity   int        `db:"quantity"`
	AssignedBy string     `db:"assigned_by"`
	AssignedAt time.Time  `db:"assigned_at"`
	ReturnedAt *time.Time `db:"returned_at"` // nil while the assignment is outstanding
}

func (a *InventoryAssignment) Active() bool {
	return a.ReturnedAt == nil
}

type InventoryReservation struct {
	ID         string     `db:"id"`
	ItemID     string     `db:"item_id"`
	TeamID     string     `db:"team_id"`
	Quantity   int        `db:"quantity"`
	RequestID  *string    `db:"request_id"` // set when the hold backs a material request
	Status     string     `db:"status"`
	ExpiresAt  time.Time  `db:"expires_at"`
	CreatedAt  time.Time  `db:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at"`
}

type ConsumptionLog struct {
	ID            string    `db:"id"`
	ItemID        string    `db:"item_id"`
	TeamID        string    `db:"team_id"`
	Quantity      int       `db:"quantity"`
	DistributedBy string    `db:"distributed_by"`
	ConsumedAt    time.Time `db:"consumed_at"`
}
