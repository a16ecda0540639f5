package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/averbeck/bookhold/reservation"
)

type addItemRequest struct {
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type itemResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Quantity  int       `json:"quantity"`
	Available int       `json:"available"`
	CreatedAt time.Time `json:"createdAt"`
}

func toItemResponse(item reservation.Item) itemResponse {
	return itemResponse{
		ID:        item.ID,
		Title:     item.Title,
		Author:    item.Author,
		ISBN:      item.ISBN,
		Quantity:  item.Quantity,
		Available: item.Available,
		CreatedAt: item.CreatedAt,
	}
}

func (s *Server) handleListItems(c *gin.Context) {
	items, err := s.catalog.ListItems(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	responses := make([]itemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toItemResponse(item))
	}

	c.JSON(http.StatusOK, responses)
}

func (s *Server) handleGetItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	item, err := s.catalog.GetItem(c.Request.Context(), itemID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(item))
}

func (s *Server) handleAddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.catalog.AddItem(c.Request.Context(), req.Title, req.Author, req.ISBN, req.Quantity)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := s.catalog.RemoveItem(c.Request.Context(), itemID); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
