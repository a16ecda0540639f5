package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/postgresengine"
	"github.com/averbeck/bookhold/testutil/helper"
	"github.com/averbeck/bookhold/testutil/helper/postgreswrapper"
)

func Test_ItemRoundTrip(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	item := helper.GivenItemInCatalog(t, ctx, store, 3)

	// act
	stored, err := store.GetItem(ctx, item.ID)

	// assert
	assert.NoError(t, err, "error in getting the item")
	assert.Equal(t, item.ID, stored.ID)
	assert.Equal(t, item.Title, stored.Title)
	assert.Equal(t, 3, stored.Quantity)
	assert.Equal(t, 3, stored.Available)
}

func Test_GetItem_When_The_Item_Does_Not_Exist(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	// act
	_, err := wrapper.GetStore().GetItem(ctx, helper.GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, reservation.ErrItemNotFound)
}

func Test_ConditionalDecrementAvailability_Closes_The_Gate_At_Zero(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	item := helper.GivenItemInCatalog(t, ctx, store, 1)

	// act + assert
	applied, err := store.ConditionalDecrementAvailability(ctx, item.ID)
	assert.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.ConditionalDecrementAvailability(ctx, item.ID)
	assert.NoError(t, err)
	assert.False(t, applied, "the conditional update must not apply at zero")

	itemAfter, err := store.GetItem(ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, itemAfter.Available)
}

func Test_ReservationRoundTrip_Keeps_The_Snapshot(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	item := helper.GivenItemInCatalog(t, ctx, store, 1)

	start, end := helper.GivenDateRange(time.Now())
	rec := reservation.Reservation{
		ID:           helper.GivenUniqueID(t),
		ItemID:       item.ID,
		RequesterID:  helper.GivenUniqueID(t),
		StartDate:    start,
		EndDate:      end,
		Status:       reservation.StatusActive,
		ItemSnapshot: item.Snapshot(),
		CreatedAt:    time.Now().UTC(),
	}

	_, err := store.Create(ctx, rec)
	require.NoError(t, err, "error in creating the reservation")

	// act
	stored, err := store.GetReservation(ctx, rec.ID)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.Equal(t, rec.ItemID, stored.ItemID)
	assert.Equal(t, rec.RequesterID, stored.RequesterID)
	assert.Equal(t, start, stored.StartDate)
	assert.Equal(t, end, stored.EndDate)
	assert.Equal(t, reservation.StatusActive, stored.Status)
	assert.Equal(t, item.Snapshot(), stored.ItemSnapshot)
	assert.True(t, stored.CancelledAt.IsZero())
}

func Test_Terminate_Applies_Only_While_Active(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	item := helper.GivenItemInCatalog(t, ctx, store, 1)

	start, end := helper.GivenDateRange(time.Now())
	rec := reservation.Reservation{
		ID:           helper.GivenUniqueID(t),
		ItemID:       item.ID,
		RequesterID:  helper.GivenUniqueID(t),
		StartDate:    start,
		EndDate:      end,
		Status:       reservation.StatusActive,
		ItemSnapshot: item.Snapshot(),
		CreatedAt:    time.Now().UTC(),
	}
	_, err := store.Create(ctx, rec)
	require.NoError(t, err)

	// act + assert
	applied, err := store.Terminate(ctx, rec.ID, time.Now().UTC())
	assert.NoError(t, err)
	assert.True(t, applied)

	applied, err = store.Terminate(ctx, rec.ID, time.Now().UTC())
	assert.NoError(t, err)
	assert.False(t, applied, "a second terminate must report not-applied")

	stored, err := store.GetReservation(ctx, rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, stored.Status)
	assert.False(t, stored.CancelledAt.IsZero())
}

func Test_Coordinator_Full_Round_Trip_Keeps_The_Catalog_Consistent(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetStore()

	coordinator, err := reservation.NewCoordinator(store, store)
	require.NoError(t, err, "creating the coordinator failed")

	// arrange
	postgreswrapper.CleanUp(t, wrapper)
	item := helper.GivenItemInCatalog(t, ctx, store, 2)
	requesterID := helper.GivenUniqueID(t)
	start, end := helper.GivenDateRange(time.Now())

	// act
	first, err := coordinator.Reserve(ctx, requesterID, item.ID, start, end)
	require.NoError(t, err)

	_, err = coordinator.Reserve(ctx, requesterID, item.ID, start, end)
	require.NoError(t, err)

	_, err = coordinator.Reserve(ctx, requesterID, item.ID, start, end)
	require.ErrorIs(t, err, reservation.ErrUnavailable)

	require.NoError(t, coordinator.Cancel(ctx, requesterID, first.ID))

	// assert
	itemAfter, err := store.GetItem(ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, itemAfter.Available)

	holds, err := coordinator.ListForRequester(ctx, requesterID)
	assert.NoError(t, err)
	assert.Len(t, holds, 1)

	mismatches, err := reservation.CheckCatalogConsistency(ctx, store, store)
	assert.NoError(t, err)
	assert.Empty(t, mismatches)
}

func Test_NewStore_Validates_Its_Inputs(t *testing.T) {
	// act + assert: no database connection is needed to fail fast
	_, err := postgresengine.NewStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, reservation.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, reservation.ErrNilDatabaseConnection)

	_, err = postgresengine.NewStoreFromSQLX(nil)
	assert.ErrorIs(t, err, reservation.ErrNilDatabaseConnection)
}
