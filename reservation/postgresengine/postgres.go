package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/averbeck/bookhold/reservation"
	"github.com/averbeck/bookhold/reservation/postgresengine/internal/adapters"
)

const (
	defaultItemsTableName        = "items"
	defaultReservationsTableName = "reservations"

	dialectPostgres = "postgres"

	colID           = "id"
	colTitle        = "title"
	colAuthor       = "author"
	colISBN         = "isbn"
	colQuantity     = "quantity"
	colAvailable    = "available"
	colCreatedAt    = "created_at"
	colItemID       = "item_id"
	colRequesterID  = "requester_id"
	colStartDate    = "start_date"
	colEndDate      = "end_date"
	colStatus       = "status"
	colItemSnapshot = "item_snapshot"
	colCancelledAt  = "cancelled_at"

	castJsonb  = "?::jsonb"
	dateLayout = "2006-01-02"

	logMsgBuildQueryFailed        = "failed to build sql query"
	logMsgDBQueryFailed           = "database query execution failed"
	logMsgDBExecFailed            = "database statement execution failed"
	logMsgCloseRowsFailed         = "failed to close database rows"
	logMsgScanRowFailed           = "failed to scan database row"
	logMsgRowsAffectedFailed      = "failed to get rows affected count"
	logMsgSnapshotMarshalFailed   = "failed to marshal item snapshot"
	logMsgSnapshotUnmarshalFailed = "failed to unmarshal item snapshot"
	logMsgGateClosed              = "availability gate closed, decrement not applied"
	logMsgTerminateNotApplied     = "reservation already terminated, transition not applied"
	logMsgSQLExecuted             = "executed sql for: "
	logMsgOperation               = "store operation: "

	logAttrError         = "error"
	logAttrQuery         = "query"
	logAttrDurationMS    = "duration_ms"
	logAttrItemID        = "item_id"
	logAttrReservationID = "reservation_id"
	logAttrRequesterID   = "requester_id"
	logAttrRowsAffected  = "rows_affected"

	operationGetItem       = "get_item"
	operationDecrement     = "conditional_decrement_availability"
	operationIncrement     = "increment_availability"
	operationAddItem       = "add_item"
	operationRemoveItem    = "remove_item"
	operationListItems     = "list_items"
	operationCreate        = "create_reservation"
	operationGet           = "get_reservation"
	operationTerminate     = "terminate_reservation"
	operationListActive  = "list_active_by_requester"
	operationCountActive = "count_active_by_item"

	metricStoreDuration    = "bookhold_store_duration"
	metricStoreErrors      = "bookhold_store_errors_total"
	metricGateConflicts    = "bookhold_availability_conflicts_total"
	spanAttrOperation      = "operation"
	spanAttrErrorType      = "error_type"
	statusSuccess          = "success"
	statusError            = "error"
	errorTypeBuildQuery    = "build_query"
	errorTypeQuery         = "query"
	errorTypeExec          = "exec"
	errorTypeScan          = "scan"
	errorTypeRowsAffected  = "rows_affected"
	errorTypeNotFound      = "not_found"
	errorTypeSnapshotCodec = "snapshot_codec"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the PostgreSQL-backed implementation of the reservation system's
// persistence ports: reservation.ItemRepository, reservation.ReservationRepository,
// reservation.CatalogLister and catalog.Store.
//
// It leverages a database adapter and supports customizable logging, metrics,
// tracing and table configuration via functional options.
type Store struct {
	db                    adapters.DBAdapter
	itemsTableName        string
	reservationsTableName string
	logger                reservation.Logger
	contextualLogger      reservation.ContextualLogger
	metricsCollector      reservation.MetricsCollector
	tracingCollector      reservation.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolWithReplica creates a new Store using a primary pgx pool
// and a read replica. Reads route to the replica only under
// reservation.EventualConsistency contexts.
func NewStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil || replica == nil {
		return nil, reservation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, reservation.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:                    db,
		itemsTableName:        defaultItemsTableName,
		reservationsTableName: defaultReservationsTableName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

var _ reservation.ItemRepository = (*Store)(nil)
var _ reservation.ReservationRepository = (*Store)(nil)
var _ reservation.CatalogLister = (*Store)(nil)

func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// GetItem resolves an item by identifier.
func (s *Store) GetItem(ctx context.Context, itemID uuid.UUID) (reservation.Item, error) {
	ctx, span := s.startSpan(ctx, operationGetItem)

	sqlQuery, _, buildErr := s.builder().
		From(s.itemsTableName).
		Select(colID, colTitle, colAuthor, colISBN, colQuantity, colAvailable, colCreatedAt).
		Where(goqu.Ex{colID: itemID.String()}).
		ToSQL()
	if buildErr != nil {
		return reservation.Item{}, s.failBuild(ctx, span, operationGetItem, buildErr)
	}

	rows, duration, queryErr := s.queryRows(ctx, sqlQuery, operationGetItem)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)
		return reservation.Item{}, queryErr
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		s.observeSuccess(ctx, span, operationGetItem, duration)
		return reservation.Item{}, reservation.ErrItemNotFound
	}

	item, scanErr := s.scanItem(ctx, rows)
	if scanErr != nil {
		s.finishSpanError(span, errorTypeScan)
		return reservation.Item{}, scanErr
	}

	s.observeSuccess(ctx, span, operationGetItem, duration)

	return item, nil
}

// ConditionalDecrementAvailability decrements the item's availability by
// exactly 1 in a single conditional UPDATE. The write applies only while
// available > 0; zero rows affected means the gate was closed at decision
// time and is reported without error.
func (s *Store) ConditionalDecrementAvailability(ctx context.Context, itemID uuid.UUID) (bool, error) {
	ctx, span := s.startSpan(ctx, operationDecrement)

	sqlQuery, _, buildErr := s.builder().
		Update(s.itemsTableName).
		Set(goqu.Record{colAvailable: goqu.L(colAvailable + " - 1")}).
		Where(
			goqu.C(colID).Eq(itemID.String()),
			goqu.C(colAvailable).Gt(0),
		).
		ToSQL()
	if buildErr != nil {
		return false, s.failBuild(ctx, span, operationDecrement, buildErr)
	}

	rowsAffected, duration, execErr := s.execStatement(ctx, sqlQuery, operationDecrement)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return false, execErr
	}

	if rowsAffected == 0 {
		s.logOperation(ctx, logMsgGateClosed, logAttrItemID, itemID.String())
		s.incrementCounter(metricGateConflicts, operationDecrement)
		s.observeSuccess(ctx, span, operationDecrement, duration)

		return false, nil
	}

	s.observeSuccess(ctx, span, operationDecrement, duration)

	return true, nil
}

// IncrementAvailability hands one unit back to the item.
// Returns reservation.ErrItemNotFound if the item no longer exists.
func (s *Store) IncrementAvailability(ctx context.Context, itemID uuid.UUID) error {
	ctx, span := s.startSpan(ctx, operationIncrement)

	sqlQuery, _, buildErr := s.builder().
		Update(s.itemsTableName).
		Set(goqu.Record{colAvailable: goqu.L(colAvailable + " + 1")}).
		Where(goqu.C(colID).Eq(itemID.String())).
		ToSQL()
	if buildErr != nil {
		return s.failBuild(ctx, span, operationIncrement, buildErr)
	}

	rowsAffected, duration, execErr := s.execStatement(ctx, sqlQuery, operationIncrement)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return execErr
	}

	if rowsAffected == 0 {
		s.finishSpanError(span, errorTypeNotFound)
		return reservation.ErrItemNotFound
	}

	s.observeSuccess(ctx, span, operationIncrement, duration)

	return nil
}

// AddItem inserts a new catalog item.
func (s *Store) AddItem(ctx context.Context, item reservation.Item) (reservation.Item, error) {
	ctx, span := s.startSpan(ctx, operationAddItem)

	sqlQuery, _, buildErr := s.builder().
		Insert(s.itemsTableName).
		Rows(goqu.Record{
			colID:        item.ID.String(),
			colTitle:     item.Title,
			colAuthor:    item.Author,
			colISBN:      item.ISBN,
			colQuantity:  item.Quantity,
			colAvailable: item.Available,
			colCreatedAt: item.CreatedAt,
		}).
		ToSQL()
	if buildErr != nil {
		return reservation.Item{}, s.failBuild(ctx, span, operationAddItem, buildErr)
	}

	_, duration, execErr := s.execStatement(ctx, sqlQuery, operationAddItem)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return reservation.Item{}, execErr
	}

	s.observeSuccess(ctx, span, operationAddItem, duration)

	return item, nil
}

// RemoveItem deletes an item from the catalog.
// Returns reservation.ErrItemNotFound if the identifier does not resolve.
func (s *Store) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	ctx, span := s.startSpan(ctx, operationRemoveItem)

	sqlQuery, _, buildErr := s.builder().
		Delete(s.itemsTableName).
		Where(goqu.C(colID).Eq(itemID.String())).
		ToSQL()
	if buildErr != nil {
		return s.failBuild(ctx, span, operationRemoveItem, buildErr)
	}

	rowsAffected, duration, execErr := s.execStatement(ctx, sqlQuery, operationRemoveItem)
	if execErr != nil {
		s.finishSpanError(span, errorTypeExec)
		return execErr
	}

	if rowsAffected == 0 {
		s.finishSpanError(span, errorTypeNotFound)
		return reservation.ErrItemNotFound
	}

	s.observeSuccess(ctx, span, operationRemoveItem, duration)

	return nil
}

// ListItems returns all catalog items, newest first.
func (s *Store) ListItems(ctx context.Context) ([]reservation.Item, error) {
	ctx, span := s.startSpan(ctx, operationListItems)

	sqlQuery, _, buildErr := s.builder().
		From(s.itemsTableName).
		Select(colID, colTitle, colAuthor, colISBN, colQuantity, colAvailable, colCreatedAt).
		Order(goqu.I(colCreatedAt).Desc()).
		ToSQL()
	if buildErr != nil {
		return nil, s.failBuild(ctx, span, operationListItems, buildErr)
	}

	rows, duration, queryErr := s.queryRows(ctx, sqlQuery, operationListItems)
	if queryErr != nil {
		s.finishSpanError(span, errorTypeQuery)
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	items := make([]reservation.Item, 0)

	for rows.Next() {
		item, scanErr := s.scanItem(ctx, rows)
		if scanErr != nil {
			s.finishSpanError(span, errorTypeScan)
			return nil, scanErr
		}

		items = append(items, item)
	}

	s.observeSuccess(ctx, span, operationListItems, duration)

	return items, nil
}

// scanItem converts the current database row into an Item.
func (s *Store) scanItem(ctx context.Context, rows adapters.DBRows) (reservation.Item, error) {
	var (
		id        string
		title     string
		author    string
		isbn      string
		quantity  int
		available int
		createdAt time.Time
	)

	if scanErr := rows.Scan(&id, &title, &author, &isbn, &quantity, &available, &createdAt); scanErr != nil {
		s.logError(ctx, logMsgScanRowFailed, scanErr)
		return reservation.Item{}, errors.Join(reservation.ErrScanningDBRowFailed, scanErr)
	}

	itemID, parseErr := uuid.Parse(id)
	if parseErr != nil {
		s.logError(ctx, logMsgScanRowFailed, parseErr)
		return reservation.Item{}, errors.Join(reservation.ErrScanningDBRowFailed, parseErr)
	}

	return reservation.Item{
		ID:        itemID,
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Quantity:  quantity,
		Available: available,
		CreatedAt: createdAt,
	}, nil
}
