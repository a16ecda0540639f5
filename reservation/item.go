package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyItemTitle = errors.New("item title must not be empty")
var ErrInvalidItemQuantity = errors.New("item quantity must be positive")

// Item is a catalog entry with finite capacity.
//
// Quantity is the total capacity; Available is the count of currently
// unreserved units. The system-wide invariant is:
//
//	Available == Quantity - count(active reservations for this item)
//
// Only the Coordinator may mutate Available. Items are created and deleted
// by catalog-management operations; the Coordinator never does either.
type Item struct {
	ID        uuid.UUID
	Title     string
	Author    string
	ISBN      string
	Quantity  int
	Available int
	CreatedAt time.Time
}

// ItemSnapshot is a point-in-time copy of an item's descriptive fields.
// It is stored alongside each reservation at creation time so that listing
// reservations keeps working even if the item is later removed from the catalog.
type ItemSnapshot struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn,omitempty"`
}

// BuildItem is a factory method for Item.
//
// A new item starts with all units available (Available == Quantity).
// Returns an error if the title is empty or the quantity is not positive.
func BuildItem(id uuid.UUID, title string, author string, isbn string, quantity int, createdAt time.Time) (Item, error) {
	if title == "" {
		return Item{}, ErrEmptyItemTitle
	}

	if quantity <= 0 {
		return Item{}, ErrInvalidItemQuantity
	}

	return Item{
		ID:        id,
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Quantity:  quantity,
		Available: quantity,
		CreatedAt: createdAt,
	}, nil
}

// Snapshot returns the point-in-time copy of the item's descriptive fields.
func (i Item) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		Title:  i.Title,
		Author: i.Author,
		ISBN:   i.ISBN,
	}
}
