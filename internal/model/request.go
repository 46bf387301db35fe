package model

import "time"

// Review axis of a material request. in_review is a transient claim
// held while one decision is being processed; it always returns to
// pending_review or moves to a terminal status.
const (
	RequestDraft             = "draft"
	RequestSubmitted         = "submitted"
	RequestPendingReview     = "pending_review"
	RequestInReview          = "in_review"
	RequestApproved          = "approved"
	RequestPartiallyApproved = "partially_approved"
	RequestDeclined          = "declined"
)

// Delivery axis. Only advances once the review axis reaches
// approved/partially_approved.
const (
	DeliveryNotOrdered = "not_ordered"
	DeliveryOrdered    = "ordered"
	DeliveryDelivered  = "delivered"
)

// Per-item verdicts inside a request.
const (
	RequestItemPending  = "pending"
	RequestItemApproved = "approved"
	RequestItemDeclined = "declined"
	RequestItemPartial  = "partial"
)

// Approval decisions recorded per level.
const (
	DecisionApproved = "approved"
	DecisionDeclined = "declined"
	DecisionPartial  = "partial"
)

type MaterialRequest struct {
	ID                    string     `db:"id"`
	RequestNumber         string     `db:"request_number"` // REQ-<year>-<4 digit sequence>
	TeamID                string     `db:"team_id"`
	RequestedBy           string     `db:"requested_by"`
	Priority              string     `db:"priority"`
	Purpose               string     `db:"purpose"`
	IsConsumableRequest   bool       `db:"is_consumable_request"`
	RequiresQuickApproval bool       `db:"requires_quick_approval"`
	Status                string     `db:"status"`
	DeliveryStatus        string     `db:"delivery_status"`
	CreatedAt             time.Time  `db:"created_at"`
	SubmittedAt           *time.Time `db:"submitted_at"`
	ReviewedAt            *time.Time `db:"reviewed_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

// Terminal reports whether the review axis can no longer move.
func (r *MaterialRequest) Terminal() bool {
	switch r.Status {
	case RequestApproved, RequestPartiallyApproved, RequestDeclined:
		return true
	}
	return false
}

type RequestItem struct {
	ID        string  `db:"id"`
	RequestID string  `db:"request_id"`
	ItemID    *string `db:"item_id"` // nil when the item is not yet in the catalog
	ItemName  string  `db:"item_name"`
	Quantity  int     `db:"quantity"`
	// ApprovedQuantity is always <= Quantity; DistributedQuantity tracks
	// how much of the approved amount has already been allocated against
	// the ledger, so a re-run after a stock conflict never double-debits.
	ApprovedQuantity    int    `db:"approved_quantity"`
	DistributedQuantity int    `db:"distributed_quantity"`
	Status              string `db:"status"`
}

type RequestApproval struct {
	ID            string    `db:"id"`
	RequestID     string    `db:"request_id"`
	ApprovalLevel int       `db:"approval_level"`
	ApproverID    string    `db:"approver_id"`
	ApproverRole  string    `db:"approver_role"`
	Decision      string    `db:"decision"`
	Note          string    `db:"note"`
	DecidedAt     time.Time `db:"decided_at"`
}

// RequestHistory is the append-only audit trail; rows are never updated.
type RequestHistory struct {
	ID        string    `db:"id"`
	RequestID string    `db:"request_id"`
	Field     string    `db:"field"`
	OldValue  string    `db:"old_value"`
	NewValue  string    `db:"new_value"`
	ActorID   string    `db:"actor_id"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}
