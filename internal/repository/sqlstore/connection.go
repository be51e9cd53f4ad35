package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dtroode/appblock/database"
)

// Supported values of the database driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Connection is a migrated database handle.
type Connection struct {
	*sql.DB
}

// NewConnection opens the database behind dsn with the given driver and
// applies pending migrations.
func NewConnection(ctx context.Context, driver, dsn string) (*Connection, error) {
	sqlDriver, dialect, err := resolveDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if sqlDriver == "sqlite3" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	if err := database.Migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{DB: db}, nil
}

func resolveDriver(driver string) (sqlDriver, dialect string, err error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return "sqlite3", "sqlite3", nil
	case DriverPostgres, "pgx":
		return "pgx", "postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close closes the underlying database.
func (c *Connection) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
