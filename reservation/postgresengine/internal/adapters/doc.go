// Package adapters provides database adapter implementations for the
// PostgreSQL reservation store.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, so the store
// works with any supported connection type.
//
// The pgx adapter additionally supports an optional read replica: reads are
// routed to it only when the request context carries
// reservation.EventualConsistency, so the Coordinator's read-check-write
// sequences always see the primary.
package adapters
