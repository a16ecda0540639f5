package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averbeck/bookhold/reservation"
)

// statusFromError maps domain errors to transport status codes.
// Unavailable deliberately maps to 403 rather than 409: capacity refusal is
// presented as "you may not take this unit now", and NotOwner maps to 401 so
// that clients can distinguish an authorization failure from a not-found.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, reservation.ErrInvalidDateRange),
		errors.Is(err, reservation.ErrEmptyItemTitle),
		errors.Is(err, reservation.ErrInvalidItemQuantity):
		return http.StatusBadRequest
	case errors.Is(err, reservation.ErrUnavailable):
		return http.StatusForbidden
	case errors.Is(err, reservation.ErrNotOwner):
		return http.StatusUnauthorized
	case errors.Is(err, reservation.ErrItemNotFound),
		errors.Is(err, reservation.ErrReservationNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as a JSON body with the mapped status code.
// Infrastructure failures are logged and masked behind a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFromError(err)

	if status == http.StatusInternalServerError {
		s.logError(logMsgRequestFailed, err, "path", c.FullPath())
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

const logMsgRequestFailed = "request failed with unexpected error"
