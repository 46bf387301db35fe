// Package events defines the domain events the service emits for
// external collaborators. Delivery is fire-and-forget: a publish
// failure is logged by the caller and never rolls back the committed
// transaction that produced the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RequestApproved   = "request.approved"
	ItemLowStock      = "item.low_stock"
	AssignmentCreated = "assignment.created"
)

type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func New(eventType string, payload interface{}) Event {
	return Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type LowStockPayload struct {
	ItemID    string `json:"item_id"`
	SKU       string `json:"sku"`
	Status    string `json:"status"`
	Available int    `json:"available_quantity"`
	MinStock  int    `json:"min_stock_level"`
}

type AssignmentCreatedPayload struct {
	AssignmentID string `json:"assignment_id"`
	ItemID       string `json:"item_id"`
	TeamID       string `json:"team_id"`
	Quantity     int    `json:"quantity"`
}

type RequestApprovedPayload struct {
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	Status        string `json:"status"`
	TeamID        string `json:"team_id"`
}

// NopPublisher discards events; used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
