// Package postgresengine provides the PostgreSQL store for the reservation
// system.
//
// The availability counter is never read-then-written: every mutation is a
// single conditional UPDATE whose rows-affected count decides the outcome.
//
//	UPDATE items SET available = available - 1
//	WHERE id = $item AND available > 0
//
// Zero rows affected means the availability gate was closed at decision time;
// the store reports that without error and the Coordinator fails the reserve
// with ErrUnavailable, leaving no trace. The cancellation path uses the same
// discipline for the reservation status transition, so racing cancels resolve
// to exactly one winner.
//
// The store works with pgxpool.Pool (optionally with a read replica for
// eventually consistent reads), database/sql (lib/pq), or sqlx connections
// through an internal adapter layer. All SQL is built with goqu.
package postgresengine
