// Package memoryengine provides an in-memory store for the reservation
// system, guarding every read-check-write on an item's availability counter
// with a per-item mutex.
//
// Operations on different items take different locks and proceed fully in
// parallel; operations on the same item are mutually exclusive with respect
// to the counter. The engine backs unit tests and the development server
// mode; production deployments use postgresengine.
package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/averbeck/bookhold/catalog"
	"github.com/averbeck/bookhold/reservation"
)

// itemRecord pairs an item with the mutex serializing counter access to it.
type itemRecord struct {
	mu   sync.Mutex
	item reservation.Item
}

// Store holds items and reservations in process memory.
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu           sync.RWMutex // guards the maps themselves
	items        map[uuid.UUID]*itemRecord
	reservations map[uuid.UUID]reservation.Reservation
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items:        make(map[uuid.UUID]*itemRecord),
		reservations: make(map[uuid.UUID]reservation.Reservation),
	}
}

var _ reservation.ItemRepository = (*Store)(nil)
var _ reservation.ReservationRepository = (*Store)(nil)
var _ reservation.CatalogLister = (*Store)(nil)
var _ catalog.Store = (*Store)(nil)

func (s *Store) itemRecord(itemID uuid.UUID) (*itemRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.items[itemID]

	return rec, ok
}

// GetItem resolves an item by identifier.
func (s *Store) GetItem(_ context.Context, itemID uuid.UUID) (reservation.Item, error) {
	rec, ok := s.itemRecord(itemID)
	if !ok {
		return reservation.Item{}, reservation.ErrItemNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.item, nil
}

// ConditionalDecrementAvailability decrements the item's availability by 1
// under the item's lock, but only while at least one unit is available.
func (s *Store) ConditionalDecrementAvailability(_ context.Context, itemID uuid.UUID) (bool, error) {
	rec, ok := s.itemRecord(itemID)
	if !ok {
		return false, reservation.ErrItemNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.item.Available <= 0 {
		return false, nil
	}

	rec.item.Available--

	return true, nil
}

// IncrementAvailability hands one unit back under the item's lock.
func (s *Store) IncrementAvailability(_ context.Context, itemID uuid.UUID) error {
	rec, ok := s.itemRecord(itemID)
	if !ok {
		return reservation.ErrItemNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.item.Available++

	return nil
}

// AddItem inserts a new catalog item.
func (s *Store) AddItem(_ context.Context, item reservation.Item) (reservation.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = &itemRecord{item: item}

	return item, nil
}

// RemoveItem deletes an item. Reservations referencing it are kept; their
// cancellation path tolerates the missing item.
func (s *Store) RemoveItem(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return reservation.ErrItemNotFound
	}

	delete(s.items, itemID)

	return nil
}

// ListItems returns all catalog items, newest first.
func (s *Store) ListItems(_ context.Context) ([]reservation.Item, error) {
	s.mu.RLock()
	records := make([]*itemRecord, 0, len(s.items))
	for _, rec := range s.items {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	items := make([]reservation.Item, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		items = append(items, rec.item)
		rec.mu.Unlock()
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// Create persists a new reservation record.
func (s *Store) Create(_ context.Context, rec reservation.Reservation) (reservation.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reservations[rec.ID] = rec

	return rec, nil
}

// GetReservation resolves a reservation by identifier, regardless of status.
func (s *Store) GetReservation(_ context.Context, reservationID uuid.UUID) (reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.reservations[reservationID]
	if !ok {
		return reservation.Reservation{}, reservation.ErrReservationNotFound
	}

	return rec, nil
}

// Terminate transitions a reservation from active to cancelled if it still
// is active, reporting whether the transition was applied.
func (s *Store) Terminate(_ context.Context, reservationID uuid.UUID, cancelledAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.reservations[reservationID]
	if !ok {
		return false, reservation.ErrReservationNotFound
	}

	if rec.Status != reservation.StatusActive {
		return false, nil
	}

	rec.Status = reservation.StatusCancelled
	rec.CancelledAt = cancelledAt
	s.reservations[reservationID] = rec

	return true, nil
}

// ListActiveByRequester returns all active reservations owned by the requester.
func (s *Store) ListActiveByRequester(_ context.Context, requesterID uuid.UUID) ([]reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []reservation.Reservation
	for _, rec := range s.reservations {
		if rec.RequesterID == requesterID && rec.Status == reservation.StatusActive {
			recs = append(recs, rec)
		}
	}

	return recs, nil
}

// CountActiveByItem returns the number of active reservations referencing the item.
func (s *Store) CountActiveByItem(_ context.Context, itemID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.reservations {
		if rec.ItemID == itemID && rec.Status == reservation.StatusActive {
			count++
		}
	}

	return count, nil
}
