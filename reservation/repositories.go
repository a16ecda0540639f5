package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ItemRepository is the Coordinator's port to the catalog item store.
//
// The availability counter may only be touched through the two mutation
// methods below; no other code path may read-then-write it. Both mutations
// must be atomic at the store level.
type ItemRepository interface {
	// GetItem resolves an item by identifier.
	// Returns ErrItemNotFound if the identifier does not resolve.
	GetItem(ctx context.Context, itemID uuid.UUID) (Item, error)

	// ConditionalDecrementAvailability decrements the item's availability by
	// exactly 1, but only if at least one unit is available. It reports
	// whether the decrement was applied. A non-applied decrement is not an
	// error: it is the availability gate rejecting the request.
	ConditionalDecrementAvailability(ctx context.Context, itemID uuid.UUID) (bool, error)

	// IncrementAvailability hands one unit back to the item.
	// Returns ErrItemNotFound if the item no longer exists.
	IncrementAvailability(ctx context.Context, itemID uuid.UUID) error
}

// ReservationRepository is the Coordinator's port to the reservation ledger.
type ReservationRepository interface {
	// Create persists a new reservation record and returns it.
	Create(ctx context.Context, rec Reservation) (Reservation, error)

	// GetReservation resolves a reservation by identifier, regardless of status.
	// Returns ErrReservationNotFound if the identifier does not resolve.
	GetReservation(ctx context.Context, reservationID uuid.UUID) (Reservation, error)

	// Terminate transitions a reservation from active to cancelled, but only
	// if it is still active. It reports whether the transition was applied;
	// a non-applied terminate means a concurrent cancel already won.
	Terminate(ctx context.Context, reservationID uuid.UUID, cancelledAt time.Time) (bool, error)

	// ListActiveByRequester returns all active reservations owned by the
	// requester. No ordering is guaranteed.
	ListActiveByRequester(ctx context.Context, requesterID uuid.UUID) ([]Reservation, error)

	// CountActiveByItem returns the number of active reservations referencing
	// the item. Used by the consistency audit.
	CountActiveByItem(ctx context.Context, itemID uuid.UUID) (int, error)
}
