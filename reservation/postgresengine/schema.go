package postgresengine

import (
	"context"
	"fmt"
)

const createItemsTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id         text PRIMARY KEY,
    title      text NOT NULL,
    author     text NOT NULL DEFAULT '',
    isbn       text NOT NULL DEFAULT '',
    quantity   integer NOT NULL CHECK (quantity > 0),
    available  integer NOT NULL CHECK (available >= 0 AND available <= quantity),
    created_at timestamptz NOT NULL
)`

const createReservationsTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id            text PRIMARY KEY,
    item_id       text NOT NULL,
    requester_id  text NOT NULL,
    start_date    date NOT NULL,
    end_date      date NOT NULL,
    status        text NOT NULL,
    item_snapshot jsonb NOT NULL,
    created_at    timestamptz NOT NULL,
    cancelled_at  timestamptz
)`

const createReservationsRequesterIndexDDL = `
CREATE INDEX IF NOT EXISTS %s_requester_status_idx ON %s (requester_id, status)`

const createReservationsItemIndexDDL = `
CREATE INDEX IF NOT EXISTS %s_item_status_idx ON %s (item_id, status)`

// EnsureSchema creates the items and reservations tables and their indexes
// if they do not exist. The CHECK constraints mirror the availability
// invariant at the schema level.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(createItemsTableDDL, s.itemsTableName),
		fmt.Sprintf(createReservationsTableDDL, s.reservationsTableName),
		fmt.Sprintf(createReservationsRequesterIndexDDL, s.reservationsTableName, s.reservationsTableName),
		fmt.Sprintf(createReservationsItemIndexDDL, s.reservationsTableName, s.reservationsTableName),
	}

	for _, statement := range statements {
		if _, _, err := s.execStatement(ctx, statement, "ensure_schema"); err != nil {
			return err
		}
	}

	return nil
}
