// Package httperr maps domain errors onto HTTP status codes so every
// handler reports failures the same way.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/incuhub/inventory-service/internal/apperr"
)

func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrItemUnavailable),
		errors.Is(err, apperr.ErrAlreadyReturned),
		errors.Is(err, apperr.ErrDuplicateAssignment),
		errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNoTargetTeam):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func JSON(c *gin.Context, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
