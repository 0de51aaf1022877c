package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/config"
	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB is the handle every repository is built on
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
	Dialect() string
}

// SQLDB wraps a sqlx connection pool together with its dialect.
type SQLDB struct {
	db      *sqlx.DB
	dialect string
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// Repository represents common repository operations
type Repository interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// Open connects to the database selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverPgx:
		return openPostgres(cfg)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	nuts.L.Infof("[Database] Connected to %s:%d/%s via %s", cfg.Host, cfg.Port, cfg.DBName, cfg.Driver)
	return &SQLDB{db: db, dialect: DriverPostgres}, nil
}

// OpenSQLite opens (or creates) an embedded database file.
func OpenSQLite(path string) (DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating SQLite directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening SQLite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	nuts.L.Infof("[Database] Opened SQLite database %s", path)
	return &SQLDB{db: db, dialect: DriverSQLite}, nil
}

func (d *SQLDB) Close() error {
	return d.db.Close()
}

func (d *SQLDB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *SQLDB) GetDB() *sqlx.DB {
	return d.db
}

// Dialect is either DriverPostgres or DriverSQLite.
func (d *SQLDB) Dialect() string {
	return d.dialect
}
