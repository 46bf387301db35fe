package dto

type AssignmentFilters struct {
	TeamID     string
	ItemID     string
	ActiveOnly bool
}

type ReservationFilters struct {
	TeamID string
	ItemID string
	Status string
}
