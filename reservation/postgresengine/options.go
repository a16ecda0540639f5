package postgresengine

import (
	"github.com/averbeck/bookhold/reservation"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithItemsTableName sets the table name for catalog items.
func WithItemsTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return reservation.ErrEmptyTableName
		}

		s.itemsTableName = tableName

		return nil
	}
}

// WithReservationsTableName sets the table name for the reservation ledger.
func WithReservationsTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return reservation.ErrEmptyTableName
		}

		s.reservationsTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operation outcomes, durations, availability conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger reservation.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Store. It
// receives the same messages as the plain logger plus automatic trace
// correlation when tracing is enabled. When both loggers are configured,
// the contextual one wins.
func WithContextualLogger(logger reservation.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store. It receives
// operation durations, database errors, and availability-gate conflicts.
func WithMetrics(collector reservation.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store. It receives span
// creation for every store operation with outcome and error-type attributes.
func WithTracing(collector reservation.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
