package reservation

import (
	"errors"
)

// Domain errors returned by the Coordinator. The request-handling layer maps
// them to transport status codes; none of them implies a partial state change.
var (
	// ErrItemNotFound is returned when an item identifier does not resolve to a catalog item.
	ErrItemNotFound = errors.New("item not found")

	// ErrUnavailable is returned when an item has no available units at decision time.
	// It is safe for the caller to retry later; a failed reserve leaves no trace.
	ErrUnavailable = errors.New("item not available for reservation")

	// ErrInvalidDateRange is returned when a reservation date range is missing,
	// starts in the past, or ends before it starts. It is raised before any
	// shared state is touched.
	ErrInvalidDateRange = errors.New("invalid reservation date range")

	// ErrReservationNotFound is returned when a reservation identifier does not
	// resolve to an active reservation.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrNotOwner is returned when a requester tries to cancel a reservation
	// owned by a different requester. It is an authorization failure, distinct
	// from ErrReservationNotFound.
	ErrNotOwner = errors.New("reservation belongs to a different requester")
)

// Infrastructure errors surfaced by the store engines.
var (
	ErrNilDatabaseConnection     = errors.New("database connection must not be nil")
	ErrEmptyTableName            = errors.New("empty table name supplied")
	ErrBuildingQueryFailed       = errors.New("building sql query failed")
	ErrQueryingStoreFailed       = errors.New("querying the store failed")
	ErrExecutingStoreFailed      = errors.New("executing store statement failed")
	ErrScanningDBRowFailed       = errors.New("scanning database row failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
	ErrMarshalingSnapshotFailed  = errors.New("marshaling item snapshot failed")
)

// ErrCompensationFailed is returned when a reserve operation failed after the
// availability counter was already decremented and handing the unit back also
// failed. This is the one condition that can leave the counter short of the
// ledger; it is logged at error level and must be reconciled via the audit.
var ErrCompensationFailed = errors.New("failed to return availability unit after ledger fault")
