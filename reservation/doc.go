// Package reservation provides the availability-accounting core of the
// catalog reservation system.
//
// The central type is the Coordinator: the sole component authorized to
// change an Item's availability counter. It guarantees that the counter,
// the set of active reservations, and the state visible to requesters
// never diverge, even under concurrent reserve/cancel requests against
// the same item.
//
// The package defines the data model (Item, Reservation), the error
// taxonomy, the repository ports the Coordinator consumes, and the
// consistency oracle (CheckCatalogConsistency) that recomputes every
// item's availability from its active reservations.
//
// Persistence is delegated to engine packages:
//   - postgresengine: conditional UPDATEs with rows-affected checks
//   - memoryengine: per-item mutual exclusion around read-check-write
//
// Common usage pattern:
//
//	coordinator, err := reservation.NewCoordinator(store, store)
//	if err != nil {
//		// handle error
//	}
//
//	held, err := coordinator.Reserve(ctx, requesterID, itemID, start, end)
//	if errors.Is(err, reservation.ErrUnavailable) {
//		// no units left, safe to retry later
//	}
package reservation
