package dto

import "time"

type DistributeInput struct {
	ItemID   string `json:"item_id" binding:"required"`
	TeamID   string `json:"team_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Actor    string `json:"-"`
}

// BatchResult reports the outcome of one line of a bulk distribution.
// Bulk distribution is a loop of single calls so every line gets its
// own invariant check; one failing line never blocks the others.
type BatchResult struct {
	ItemID string `json:"item_id"`
	LogID  string `json:"log_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type LogFilters struct {
	ItemID string
	TeamID string
	Since  *time.Time
	Until  *time.Time
}
