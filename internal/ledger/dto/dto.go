package dto

type ItemFilters struct {
	SKU        string
	Category   string
	Status     string
	LowStock   bool // available_quantity < min_stock_level
	Consumable *bool
	// MinStockOnly keeps items with a configured min_stock_level; the
	// forecaster only looks at those.
	MinStockOnly bool
	Page         int
	PageSize     int
}
