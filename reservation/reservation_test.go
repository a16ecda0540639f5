package reservation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/testutil/helper"
)

func Test_ValidateDateRange_When_The_Range_Is_Valid(t *testing.T) {
	// arrange
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	// act + assert
	assert.NoError(t, reservation.ValidateDateRange(start, end, now))
}

func Test_ValidateDateRange_When_The_Range_Starts_Today(t *testing.T) {
	// arrange: a start earlier on the same calendar day is still valid
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start

	// act + assert
	assert.NoError(t, reservation.ValidateDateRange(start, end, now))
}

func Test_ValidateDateRange_When_The_Start_Is_In_The_Past(t *testing.T) {
	// arrange
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	start := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	// act + assert
	assert.ErrorIs(t, reservation.ValidateDateRange(start, end, now), reservation.ErrInvalidDateRange)
}

func Test_ValidateDateRange_When_The_End_Is_Before_The_Start(t *testing.T) {
	// arrange
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	start := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// act + assert
	assert.ErrorIs(t, reservation.ValidateDateRange(start, end, now), reservation.ErrInvalidDateRange)
}

func Test_ValidateDateRange_When_A_Date_Is_Missing(t *testing.T) {
	// arrange
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// act + assert
	assert.ErrorIs(t, reservation.ValidateDateRange(start, time.Time{}, now), reservation.ErrInvalidDateRange)
	assert.ErrorIs(t, reservation.ValidateDateRange(time.Time{}, start, now), reservation.ErrInvalidDateRange)
}

func Test_ToDate_Normalizes_To_Midnight_UTC(t *testing.T) {
	// arrange: late evening in a non-UTC zone
	zone := time.FixedZone("UTC+5", 5*60*60)
	timestamp := time.Date(2026, 8, 28, 2, 45, 12, 500, zone)

	// act
	date := reservation.ToDate(timestamp)

	// assert: 02:45 at UTC+5 is still the previous UTC day
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), date)
}

func Test_BuildItem_Starts_With_All_Units_Available(t *testing.T) {
	// arrange
	id := helper.GivenUniqueID(t)

	// act
	item, err := reservation.BuildItem(id, "Refactoring", "Martin Fowler", "978-0134757599", 4, time.Now())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, 4, item.Available)
}

func Test_BuildItem_When_The_Input_Is_Invalid(t *testing.T) {
	// arrange
	id := helper.GivenUniqueID(t)

	// act + assert
	_, err := reservation.BuildItem(id, "", "Martin Fowler", "", 4, time.Now())
	assert.ErrorIs(t, err, reservation.ErrEmptyItemTitle)

	_, err = reservation.BuildItem(id, "Refactoring", "Martin Fowler", "", 0, time.Now())
	assert.ErrorIs(t, err, reservation.ErrInvalidItemQuantity)
}

func Test_Snapshot_Copies_The_Descriptive_Fields(t *testing.T) {
	// arrange
	item, err := reservation.BuildItem(helper.GivenUniqueID(t), "Refactoring", "Martin Fowler", "978-0134757599", 1, time.Now())
	assert.NoError(t, err)

	// act
	snapshot := item.Snapshot()

	// assert
	assert.Equal(t, item.Title, snapshot.Title)
	assert.Equal(t, item.Author, snapshot.Author)
	assert.Equal(t, item.ISBN, snapshot.ISBN)
}
