package dto

import "time"

type AssignInput struct {
	ItemID   string `json:"item_id" binding:"required"`
	TeamID   string `json:"team_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Actor    string `json:"-"`
}

type ReserveInput struct {
	ItemID   string `json:"item_id" binding:"required"`
	TeamID   string `json:"team_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	// TTL of the hold; zero means the configured default.
	TTL       time.Duration `json:"-"`
	TTLMillis int64         `json:"ttl_ms"`
	RequestID *string       `json:"request_id"`
}
