package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/averbeck/bookhold/reservation"
)

const dateLayout = "2006-01-02"

type reserveRequest struct {
	ItemID    string `json:"itemId" binding:"required,uuid"`
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"required,datetime=2006-01-02"`
}

type reservationResponse struct {
	ID          uuid.UUID                `json:"id"`
	ItemID      uuid.UUID                `json:"itemId"`
	RequesterID uuid.UUID                `json:"requesterId"`
	StartDate   string                   `json:"startDate"`
	EndDate     string                   `json:"endDate"`
	Status      reservation.Status       `json:"status"`
	Item        reservation.ItemSnapshot `json:"item"`
	CreatedAt   time.Time                `json:"createdAt"`
	CancelledAt *time.Time               `json:"cancelledAt,omitempty"`
}

func toReservationResponse(rec reservation.Reservation) reservationResponse {
	response := reservationResponse{
		ID:          rec.ID,
		ItemID:      rec.ItemID,
		RequesterID: rec.RequesterID,
		StartDate:   rec.StartDate.Format(dateLayout),
		EndDate:     rec.EndDate.Format(dateLayout),
		Status:      rec.Status,
		Item:        rec.ItemSnapshot,
		CreatedAt:   rec.CreatedAt,
	}

	if !rec.CancelledAt.IsZero() {
		cancelledAt := rec.CancelledAt
		response.CancelledAt = &cancelledAt
	}

	return response
}

func (s *Server) handleReserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Parse errors are unreachable after binding validation.
	itemID, _ := uuid.Parse(req.ItemID)
	startDate, _ := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	endDate, _ := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)

	rec, err := s.coordinator.Reserve(c.Request.Context(), requesterID(c), itemID, startDate, endDate)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(rec))
}

func (s *Server) handleCancel(c *gin.Context) {
	resID, err := uuid.Parse(c.Param("reservationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	if err := s.coordinator.Cancel(c.Request.Context(), requesterID(c), resID); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleListReservations(c *gin.Context) {
	holds, err := s.coordinator.ListForRequester(c.Request.Context(), requesterID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	responses := make([]reservationResponse, 0, len(holds))
	for _, hold := range holds {
		responses = append(responses, toReservationResponse(hold.Reservation))
	}

	c.JSON(http.StatusOK, responses)
}
