package dto

// Urgency buckets for restocking.
const (
	UrgencyHigh    = "high"
	UrgencyMedium  = "medium"
	UrgencyLow     = "low"
	UrgencyMonitor = "monitor" // no consumption signal at all
)

type ReportOptions struct {
	// Trailing window of consumption history to average over.
	WindowDays int
	// Look-ahead horizon for the medium urgency bucket.
	LookAheadDays int
}

type ItemForecast struct {
	ItemID              string  `json:"item_id"`
	SKU                 string  `json:"sku"`
	Name                string  `json:"name"`
	IsConsumable        bool    `json:"is_consumable"`
	AvailableQuantity   int     `json:"available_quantity"`
	MinStockLevel       int     `json:"min_stock_level"`
	AvgDailyConsumption float64 `json:"avg_daily_consumption"`
	DaysUntilReorder    int     `json:"days_until_reorder"`
	Urgency             string  `json:"urgency"`
	SuggestedQuantity   int     `json:"suggested_quantity"`
}

type AutoDraftOptions struct {
	WindowDays    int
	LookAheadDays int
	// TeamID overrides target-team inference for every draft.
	TeamID string
	Actor  string
}

type AutoDraftResult struct {
	ItemID        string `json:"item_id"`
	SKU           string `json:"sku"`
	RequestID     string `json:"request_id,omitempty"`
	RequestNumber string `json:"request_number,omitempty"`
	Error         string `json:"error,omitempty"`
}
