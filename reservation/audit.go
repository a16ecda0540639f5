package reservation

import (
	"context"

	"github.com/google/uuid"
)

// CatalogLister lists every item in the catalog. Implemented by the engines'
// catalog stores; declared here so the audit does not depend on the catalog
// package.
type CatalogLister interface {
	ListItems(ctx context.Context) ([]Item, error)
}

// ConsistencyMismatch reports one item whose stored availability diverges
// from the value recomputed from the reservation ledger.
type ConsistencyMismatch struct {
	ItemID             uuid.UUID `json:"itemId"`
	Title              string    `json:"title"`
	Quantity           int       `json:"quantity"`
	Available          int       `json:"available"`
	ActiveReservations int       `json:"activeReservations"`
	ExpectedAvailable  int       `json:"expectedAvailable"`
}

// CheckCatalogConsistency recomputes every item's availability as capacity
// minus the count of active reservations referencing it and returns the items
// where the stored counter disagrees.
//
// This is the correctness oracle for the whole design: after any sequence of
// Reserve/Cancel operations, raced or not, the result must be empty at every
// quiescent point. It is run by tests, optionally at startup, and via the
// admin audit endpoint.
func CheckCatalogConsistency(
	ctx context.Context,
	items CatalogLister,
	ledger ReservationRepository,
) ([]ConsistencyMismatch, error) {

	catalog, err := items.ListItems(WithStrongConsistency(ctx))
	if err != nil {
		return nil, err
	}

	var mismatches []ConsistencyMismatch

	for _, item := range catalog {
		activeCount, countErr := ledger.CountActiveByItem(ctx, item.ID)
		if countErr != nil {
			return nil, countErr
		}

		expected := item.Quantity - activeCount
		if item.Available != expected {
			mismatches = append(mismatches, ConsistencyMismatch{
				ItemID:             item.ID,
				Title:              item.Title,
				Quantity:           item.Quantity,
				Available:          item.Available,
				ActiveReservations: activeCount,
				ExpectedAvailable:  expected,
			})
		}
	}

	return mismatches, nil
}
