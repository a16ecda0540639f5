package catalog_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/memoryengine"
	"github.com/averbeck/bookhold/reservation/oteladapters"
	"github.com/averbeck/bookhold/testutil/helper"
)

func Test_AddItem_Creates_The_Item_With_All_Units_Available(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()

	logSpy := helper.NewLogHandlerSpy(false)
	service := catalog.NewService(store, catalog.WithLogger(oteladapters.NewSlogLogger(slog.New(logSpy))))

	// act
	item, err := service.AddItem(ctx, "A Philosophy of Software Design", "John Ousterhout", "978-1732102217", 5)

	// assert
	assert.NoError(t, err, "error in adding the item")
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 5, item.Available)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", item.ID.String())
	assert.True(t, logSpy.HasLog(slog.LevelInfo, "item added to catalog"))

	stored, getErr := service.GetItem(ctx, item.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, item, stored)
}

func Test_AddItem_When_The_Input_Is_Invalid(t *testing.T) {
	// setup
	ctx := context.Background()
	service := catalog.NewService(memoryengine.NewStore())

	// act + assert
	_, err := service.AddItem(ctx, "", "John Ousterhout", "", 5)
	assert.ErrorIs(t, err, reservation.ErrEmptyItemTitle)

	_, err = service.AddItem(ctx, "A Philosophy of Software Design", "John Ousterhout", "", -1)
	assert.ErrorIs(t, err, reservation.ErrInvalidItemQuantity)
}

func Test_RemoveItem_Deletes_The_Item(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()
	service := catalog.NewService(store)

	// arrange
	item := helper.GivenItemInCatalog(t, ctx, store, 1)

	// act
	err := service.RemoveItem(ctx, item.ID)

	// assert
	assert.NoError(t, err)

	_, err = service.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, reservation.ErrItemNotFound)
}

func Test_RemoveItem_When_The_Item_Does_Not_Exist(t *testing.T) {
	// setup
	ctx := context.Background()
	service := catalog.NewService(memoryengine.NewStore())

	// act
	err := service.RemoveItem(ctx, helper.GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, reservation.ErrItemNotFound)
}

func Test_ListItems_Returns_The_Catalog_Newest_First(t *testing.T) {
	// setup
	ctx := context.Background()
	store := memoryengine.NewStore()

	clock := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	service := catalog.NewService(store, catalog.WithClock(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}))

	// arrange
	older, err := service.AddItem(ctx, "Older", "", "", 1)
	require.NoError(t, err)
	newer, err := service.AddItem(ctx, "Newer", "", "", 1)
	require.NoError(t, err)

	// act
	items, err := service.ListItems(ctx)

	// assert
	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
}
