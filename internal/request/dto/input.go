package dto

type RequestItemInput struct {
	// ItemID is nil when the requested item is not yet in the catalog.
	ItemID   *string `json:"item_id"`
	ItemName string  `json:"item_name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required"`
}

type CreateRequestInput struct {
	TeamID                string             `json:"team_id" binding:"required"`
	RequestedBy           string             `json:"-"`
	Priority              string             `json:"priority"`
	Purpose               string             `json:"purpose"`
	IsConsumableRequest   bool               `json:"is_consumable_request"`
	RequiresQuickApproval bool               `json:"requires_quick_approval"`
	Items                 []RequestItemInput `json:"items" binding:"dive"`
}

type ItemDecision struct {
	RequestItemID    string `json:"request_item_id" binding:"required"`
	ApprovedQuantity int    `json:"approved_quantity"`
	Decline          bool   `json:"decline"`
}

type DecideInput struct {
	Level        int            `json:"level" binding:"required"`
	ApproverID   string         `json:"-"`
	ApproverRole string         `json:"-"`
	Note         string         `json:"note"`
	// Items may be empty: the final level confirms earlier declines by
	// deciding nothing new.
	Items []ItemDecision `json:"items" binding:"dive"`
}
