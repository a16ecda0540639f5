package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/postgresengine/internal/adapters"
)

// queryRows executes a SQL query and returns rows with timing information.
func (s *Store) queryRows(ctx context.Context, sqlQuery string, operation string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		s.recordError(operation, errorTypeQuery)

		return nil, duration, errors.Join(reservation.ErrQueryingStoreFailed, queryErr)
	}

	return rows, duration, nil
}

// execStatement executes a SQL statement and returns rows affected and duration.
func (s *Store) execStatement(ctx context.Context, sqlQuery string, operation string) (
	int64,
	time.Duration,
	error,
) {

	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		s.recordError(operation, errorTypeExec)

		return 0, duration, errors.Join(reservation.ErrExecutingStoreFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		s.recordError(operation, errorTypeRowsAffected)

		return 0, duration, errors.Join(reservation.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// failBuild logs and wraps a query-building failure and finishes the span.
func (s *Store) failBuild(ctx context.Context, span reservation.SpanContext, operation string, buildErr error) error {
	s.logError(ctx, logMsgBuildQueryFailed, buildErr)
	s.recordError(operation, errorTypeBuildQuery)
	s.finishSpanError(span, errorTypeBuildQuery)

	return errors.Join(reservation.ErrBuildingQueryFailed, buildErr)
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// observeSuccess records the success duration metric and finishes the span.
func (s *Store) observeSuccess(ctx context.Context, span reservation.SpanContext, operation string, duration time.Duration) {
	s.logOperation(ctx, logMsgOperation+operation, logAttrDurationMS, toMilliseconds(duration))

	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metricStoreDuration, duration, map[string]string{
			spanAttrOperation: operation,
			"status":          statusSuccess,
		})
	}

	if s.tracingCollector != nil && span != nil {
		span.SetStatus(statusSuccess)
		s.tracingCollector.FinishSpan(span, statusSuccess, nil)
	}
}

// startSpan starts a tracing span if the tracing collector is configured.
func (s *Store) startSpan(ctx context.Context, operation string) (context.Context, reservation.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, logMsgOperation+operation, map[string]string{
		spanAttrOperation: operation,
	})
}

// finishSpanError finishes a span with error details if tracing is configured.
func (s *Store) finishSpanError(span reservation.SpanContext, errorType string) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(statusError)
	span.AddAttribute(spanAttrErrorType, errorType)
	s.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}

// recordError records an error metric if the metrics collector is configured.
func (s *Store) recordError(operation string, errorType string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metricStoreErrors, map[string]string{
			spanAttrOperation: operation,
			"status":          statusError,
			spanAttrErrorType: errorType,
		})
	}
}

// incrementCounter increments a plain counter if the metrics collector is configured.
func (s *Store) incrementCounter(metric string, operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, map[string]string{spanAttrOperation: operation})
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, operation string, duration time.Duration) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+operation, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (s *Store) logOperation(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// logError logs error information at error level.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
