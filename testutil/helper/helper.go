package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/reservation"
)

// GivenUniqueID returns a fresh identifier for arranging test data.
func GivenUniqueID(t testing.TB) uuid.UUID {
	t.Helper()

	return uuid.New()
}

// GivenDateRange returns a valid reservation window starting tomorrow and
// ending a week later, relative to the supplied clock value.
func GivenDateRange(now time.Time) (time.Time, time.Time) {
	start := reservation.ToDate(now.AddDate(0, 0, 1))
	end := start.AddDate(0, 0, 7)

	return start, end
}

// GivenItemInCatalog arranges an item with the given capacity in the store.
func GivenItemInCatalog(t testing.TB, ctx context.Context, store catalog.Store, quantity int) reservation.Item {
	t.Helper()

	item, err := reservation.BuildItem(GivenUniqueID(t), "Domain-Driven Design", "Eric Evans", "978-0321125217", quantity, time.Now())
	require.NoError(t, err, "error in arranging test data: building item")

	added, err := store.AddItem(ctx, item)
	require.NoError(t, err, "error in arranging test data: adding item")

	return added
}

// GivenActiveReservation arranges an active reservation for the requester on
// the item through the coordinator.
func GivenActiveReservation(
	t testing.TB,
	ctx context.Context,
	coordinator *reservation.Coordinator,
	requesterID uuid.UUID,
	itemID uuid.UUID,
) reservation.Reservation {

	t.Helper()

	start, end := GivenDateRange(time.Now())

	rec, err := coordinator.Reserve(ctx, requesterID, itemID, start, end)
	require.NoError(t, err, "error in arranging test data: reserving item")

	return rec
}
