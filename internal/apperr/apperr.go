// Package apperr holds the error taxonomy shared by every domain
// package. Usecases return these sentinels (usually wrapped with
// context) and the HTTP layer maps them to status codes with errors.Is.
package apperr

import "errors"

var (
	ErrInvalidQuantity     = errors.New("quantity must be a positive amount")
	ErrInsufficientStock   = errors.New("insufficient available stock")
	ErrItemUnavailable     = errors.New("item is under maintenance hold")
	ErrAlreadyReturned     = errors.New("assignment already returned")
	ErrDuplicateAssignment = errors.New("duplicate assignment")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNoTargetTeam        = errors.New("no target team for draft request")
)
