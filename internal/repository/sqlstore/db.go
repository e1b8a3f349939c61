package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	"alertify/internal/repository"
	"alertify/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a database handle together with the statement builder matching its
// placeholder style.
type DB struct {
	*sql.DB
	driver  string
	builder sq.StatementBuilderType
}

var _ repository.Transactor = (*DB)(nil)

// Open connects to the store. For sqlite, dsn is a file path whose directory is
// created if missing; for postgres, dsn is a connection string.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		conn, err = sql.Open("sqlite", dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	case DriverPostgres:
		conn, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres db: %w", err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(4)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newDB(conn, driver), nil
}

func newDB(conn *sql.DB, driver string) *DB {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &DB{DB: conn, driver: driver, builder: builder}
}

// Migrate brings the schema up to date.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.driver)
}

// Driver returns the driver name the store was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// StatsCollector exposes connection pool statistics to Prometheus.
func (db *DB) StatsCollector() prometheus.Collector {
	return collectors.NewDBStatsCollector(db.DB, db.driver)
}
