// Package catalog provides administrator-gated catalog management: adding,
// removing, and browsing items. It never touches the availability counter of
// an existing item; that is the reservation Coordinator's exclusive authority.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/averbeck/bookhold/reservation"
)

const (
	logMsgItemAdded   = "item added to catalog"
	logMsgItemRemoved = "item removed from catalog"
	logAttrItemID     = "item_id"
	logAttrQuantity   = "quantity"
)

// Store is the persistence port for catalog management.
// Both engine packages implement it alongside the reservation repositories.
type Store interface {
	AddItem(ctx context.Context, item reservation.Item) (reservation.Item, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	GetItem(ctx context.Context, itemID uuid.UUID) (reservation.Item, error)
	ListItems(ctx context.Context) ([]reservation.Item, error)
}

// Service implements the catalog-management operations. Authorization (the
// administrator gate) is the transport layer's concern; the service assumes
// the caller was already authorized.
type Service struct {
	store  Store
	logger reservation.Logger
	now    func() time.Time
}

// Option defines a functional option for configuring a Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger reservation.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a catalog Service over the given store.
func NewService(store Store, options ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// AddItem creates a new catalog item with all units available.
// Fails with reservation.ErrEmptyItemTitle or reservation.ErrInvalidItemQuantity
// before touching the store.
func (s *Service) AddItem(ctx context.Context, title string, author string, isbn string, quantity int) (reservation.Item, error) {
	item, err := reservation.BuildItem(uuid.New(), title, author, isbn, quantity, s.now())
	if err != nil {
		return reservation.Item{}, err
	}

	created, err := s.store.AddItem(ctx, item)
	if err != nil {
		return reservation.Item{}, err
	}

	if s.logger != nil {
		s.logger.Info(logMsgItemAdded, logAttrItemID, created.ID.String(), logAttrQuantity, created.Quantity)
	}

	return created, nil
}

// RemoveItem deletes an item from the catalog.
// Returns reservation.ErrItemNotFound if the identifier does not resolve.
// Active reservations referencing the item are not touched; their cancellation
// path tolerates the missing item.
func (s *Service) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	if err := s.store.RemoveItem(ctx, itemID); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info(logMsgItemRemoved, logAttrItemID, itemID.String())
	}

	return nil
}

// GetItem resolves a single item.
func (s *Service) GetItem(ctx context.Context, itemID uuid.UUID) (reservation.Item, error) {
	return s.store.GetItem(ctx, itemID)
}

// ListItems returns the whole catalog, newest first. Browsing tolerates
// slightly stale data, so the read may go to a replica.
func (s *Service) ListItems(ctx context.Context) ([]reservation.Item, error) {
	return s.store.ListItems(reservation.WithEventualConsistency(ctx))
}
