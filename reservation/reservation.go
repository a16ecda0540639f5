package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation.
// The transition is one-way: active -> cancelled, no re-activation.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Reservation is a binding hold of exactly one unit of an Item by a requester
// for a date range.
//
// A Reservation is created only by the Coordinator's reserve operation and
// transitioned to cancelled only by the Coordinator's cancel operation, and
// only by the requester who owns it. Dates are calendar dates; their time
// component is always midnight UTC (see ToDate).
type Reservation struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	RequesterID  uuid.UUID
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	ItemSnapshot ItemSnapshot
	CreatedAt    time.Time
	CancelledAt  time.Time // zero unless Status is StatusCancelled
}

// IsActive reports whether the reservation still holds its unit.
func (r Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// ToDate normalizes a timestamp to a calendar date: midnight UTC of its day.
func ToDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ValidateDateRange checks a requested reservation date range against the
// current time. A missing date, a start date before today, or an end date
// before the start date all fail with ErrInvalidDateRange. Validation happens
// before any shared state is touched.
func ValidateDateRange(startDate time.Time, endDate time.Time, now time.Time) error {
	if startDate.IsZero() || endDate.IsZero() {
		return ErrInvalidDateRange
	}

	start := ToDate(startDate)
	end := ToDate(endDate)
	today := ToDate(now)

	if start.Before(today) {
		return ErrInvalidDateRange
	}

	if end.Before(start) {
		return ErrInvalidDateRange
	}

	return nil
}
