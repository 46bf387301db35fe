package dto

import "github.com/incuhub/inventory-service/internal/model"

type RequestDetail struct {
	Request   model.MaterialRequest   `json:"request"`
	Items     []model.RequestItem     `json:"items"`
	Approvals []model.RequestApproval `json:"approvals"`
	History   []model.RequestHistory  `json:"history"`
}

type RequestFilters struct {
	TeamID   string
	Status   string
	Page     int
	PageSize int
}
