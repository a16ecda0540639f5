// Package postgreswrapper creates Postgres-backed stores for integration
// tests, selecting the database adapter with the ADAPTER_TYPE environment
// variable: pgx.pool (default), sql.db, or sqlx.db.
//
// The tests are skipped entirely when BOOKHOLD_TEST_DATABASE_URL is unset, so
// the suite stays runnable without a database.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/averbeck/bookhold/config"
	"github.com/averbeck/bookhold/reservation/postgresengine"
)

// Adapter type constants.
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper abstracts over the adapter-specific connection handles.
type Wrapper interface {
	GetStore() *postgresengine.Store
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *PGXPoolWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgresengine.Store
}

func (w *SQLDBWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgresengine.Store
}

func (w *SQLXWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// TestDatabaseURL returns the integration test DSN, skipping the test when
// none is configured.
func TestDatabaseURL(t testing.TB) string {
	t.Helper()

	databaseURL := os.Getenv("BOOKHOLD_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("BOOKHOLD_TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	return databaseURL
}

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE,
// with the schema ensured.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	databaseURL := TestDatabaseURL(t)
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	var wrapper Wrapper

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig(databaseURL))
		require.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := postgresengine.NewStoreFromPGXPool(connPool, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBConfig(databaseURL)

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXConfig(databaseURL)

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating store")

		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().EnsureSchema(context.Background()), "error ensuring schema in test setup")

	return wrapper
}

// CleanUp truncates the items and reservations tables for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	const truncate = "TRUNCATE TABLE items, reservations"

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := w.pool.Exec(context.Background(), truncate)
		require.NoError(t, err, "error cleaning up the tables")

	case *SQLDBWrapper:
		_, err := w.db.Exec(truncate)
		require.NoError(t, err, "error cleaning up the tables")

	case *SQLXWrapper:
		_, err := w.db.Exec(truncate)
		require.NoError(t, err, "error cleaning up the tables")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}
}
