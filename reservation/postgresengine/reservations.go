package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/postgresengine/internal/adapters"
)

// Create persists a new reservation record, including the point-in-time
// item snapshot serialized as JSONB.
func (s *Store) Create(ctx context.Context, rec reservation.Reservation) (reservation.Reservation, error) {
	ctx, span := s.startSpan(ctx, operationCreate)

	snapshotJSON, marshalErr := json.Marshal(rec.ItemSnapshot)
	if marshalErr != nil {
		s.logError(ctx, logMsgSnapshotMarshalFailed, marshalErr, logAttrReservationID, rec.ID.String())
		s.finishSpanError(span, errorTypeSnapshotCodec)

		return reservation.Reservation{}, errors.Join(reservation.ErrMarshalingSnapshotFailed, marshalErr)
	}

	sqlQuery, _, buildErr := s.builder().
		Insert(s.reservationsTableName).
		Rows(goqu.Record{
			colID:           rec.ID.String(),
			colItemID:       rec.ItemID.String(),
			colRequesterID:  rec.RequesterID.String(),
			colStartDate:    rec.StartDate.Format(dateLayout),
			colEndDate:      rec.EndDate.Format(dateLayout),
			colStatus:       string(rec.Status),
			colItemSnapshot: goqu.L(castJsonb, string(snapshotJSON)),
			colCreatedAt:    rec.CreatedAt,
		}).
		ToSQL()
	if buildErr != nil {
		return reservation.Reservation{}, s.failBuild(ctx, span, operationCreate, buildErr)
	}

	_, duration, execErr := s.execStatement(ctx, sqlQuery, operationCreate)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return reservation.Reservation{}, execErr
	}

	s.observeSuccess(ctx, span, operationCreate, duration)

	return rec, nil
}

// GetReservation resolves a reservation by identifier, regardless of status.
func (s *Store) GetReservation(ctx context.Context, reservationID uuid.UUID) (reservation.Reservation, error) {
	ctx, span := s.startSpan(ctx, operationGet)

	sqlQuery, _, buildErr := s.reservationSelect().
		Where(goqu.Ex{colID: reservationID.String()}).
		ToSQL()
	if buildErr != nil {
		return reservation.Reservation{}, s.failBuild(ctx, span, operationGet, buildErr)
	}

	rows, duration, queryErr := s.queryRows(ctx, sqlQuery, operationGet)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)
		return reservation.Reservation{}, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		s.observeSuccess(ctx, span, operationGet, duration)
		return reservation.Reservation{}, reservation.ErrReservationNotFound
	}

	rec, scanErr := s.scanReservation(ctx, rows)
	if scanErr != nil {
		s.finishSpanError(span, errorTypeScan)
		return reservation.Reservation{}, scanErr
	}

	s.observeSuccess(ctx, span, operationGet, duration)

	return rec, nil
}

// Terminate transitions a reservation from active to cancelled in a single
// conditional UPDATE. Zero rows affected means a concurrent cancel already
// won (or the record vanished); that is reported without error.
func (s *Store) Terminate(ctx context.Context, reservationID uuid.UUID, cancelledAt time.Time) (bool, error) {
	ctx, span := s.startSpan(ctx, operationTerminate)

	sqlQuery, _, buildErr := s.builder().
		Update(s.reservationsTableName).
		Set(goqu.Record{
			colStatus:      string(reservation.StatusCancelled),
			colCancelledAt: cancelledAt,
		}).
		Where(
			goqu.C(colID).Eq(reservationID.String()),
			goqu.C(colStatus).Eq(string(reservation.StatusActive)),
		).
		ToSQL()
	if buildErr != nil {
		return false, s.failBuild(ctx, span, operationTerminate, buildErr)
	}

	rowsAffected, duration, execErr := s.execStatement(ctx, sqlQuery, operationTerminate)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return false, execErr
	}

	if rowsAffected == 0 {
		s.logOperation(ctx, logMsgTerminateNotApplied, logAttrReservationID, reservationID.String())
		s.observeSuccess(ctx, span, operationTerminate, duration)

		return false, nil
	}

	s.observeSuccess(ctx, span, operationTerminate, duration)

	return true, nil
}

// ListActiveByRequester returns all active reservations owned by the requester.
func (s *Store) ListActiveByRequester(ctx context.Context, requesterID uuid.UUID) ([]reservation.Reservation, error) {
	ctx, span := s.startSpan(ctx, operationListActive)

	sqlQuery, _, buildErr := s.reservationSelect().
		Where(
			goqu.C(colRequesterID).Eq(requesterID.String()),
			goqu.C(colStatus).Eq(string(reservation.StatusActive)),
		).
		ToSQL()
	if buildErr != nil {
		return nil, s.failBuild(ctx, span, operationListActive, buildErr)
	}

	rows, duration, queryErr := s.queryRows(ctx, sqlQuery, operationListActive)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	recs := make([]reservation.Reservation, 0)

	for rows.Next() {
		rec, scanErr := s.scanReservation(ctx, rows)
		if scanErr != nil {
			s.finishSpanError(span, errorTypeScan)
			return nil, scanErr
		}

		recs = append(recs, rec)
	}

	s.observeSuccess(ctx, span, operationListActive, duration)

	return recs, nil
}

// CountActiveByItem returns the number of active reservations referencing the item.
func (s *Store) CountActiveByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	ctx, span := s.startSpan(ctx, operationCountActive)

	sqlQuery, _, buildErr := s.builder().
		From(s.reservationsTableName).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C(colItemID).Eq(itemID.String()),
			goqu.C(colStatus).Eq(string(reservation.StatusActive)),
		).
		ToSQL()
	if buildErr != nil {
		return 0, s.failBuild(ctx, span, operationCountActive, buildErr)
	}

	rows, duration, queryErr := s.queryRows(ctx, sqlQuery, operationCountActive)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)
		return 0, queryErr
	}
	defer s.closeRows(ctx, rows)

	var count int64

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr)
			s.finishSpanError(span, errorTypeScan)

			return 0, errors.Join(reservation.ErrScanningDBRowFailed, scanErr)
		}
	}

	s.observeSuccess(ctx, span, operationCountActive, duration)

	return int(count), nil
}

func (s *Store) reservationSelect() *goqu.SelectDataset {
	return s.builder().
		From(s.reservationsTableName).
		Select(
			colID, colItemID, colRequesterID,
			colStartDate, colEndDate, colStatus,
			colItemSnapshot, colCreatedAt, colCancelledAt,
		)
}

// scanReservation converts the current database row into a Reservation.
func (s *Store) scanReservation(ctx context.Context, rows adapters.DBRows) (reservation.Reservation, error) {
	var (
		id           string
		itemID       string
		requesterID  string
		startDate    time.Time
		endDate      time.Time
		status       string
		snapshotJSON []byte
		createdAt    time.Time
		cancelledAt  sql.NullTime
	)

	scanErr := rows.Scan(
		&id, &itemID, &requesterID,
		&startDate, &endDate, &status,
		&snapshotJSON, &createdAt, &cancelledAt,
	)
	if scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)
		return reservation.Reservation{}, errors.Join(reservation.ErrScanningDBRowFailed, scanErr)
	}

	recID, idErr := uuid.Parse(id)
	recItemID, itemIDErr := uuid.Parse(itemID)
	recRequesterID, requesterIDErr := uuid.Parse(requesterID)

	if parseErr := errors.Join(idErr, itemIDErr, requesterIDErr); parseErr != nil {
		s.logError(ctx, logMsgScanRowFailed, parseErr)
		return reservation.Reservation{}, errors.Join(reservation.ErrScanningDBRowFailed, parseErr)
	}

	var snapshot reservation.ItemSnapshot
	if unmarshalErr := json.Unmarshal(snapshotJSON, &snapshot); unmarshalErr != nil {
		s.logError(ctx, logMsgSnapshotUnmarshalFailed, unmarshalErr, logAttrReservationID, id)
		return reservation.Reservation{}, errors.Join(reservation.ErrScanningDBRowFailed, unmarshalErr)
	}

	rec := reservation.Reservation{
		ID:           recID,
		ItemID:       recItemID,
		RequesterID:  recRequesterID,
		StartDate:    startDate.UTC(),
		EndDate:      endDate.UTC(),
		Status:       reservation.Status(status),
		ItemSnapshot: snapshot,
		CreatedAt:    createdAt,
	}

	if cancelledAt.Valid {
		rec.CancelledAt = cancelledAt.Time
	}

	return rec, nil
}
