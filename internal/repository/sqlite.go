package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
	sqlite3 "modernc.org/sqlite/lib"
)

// openSQLite opens a SQLite database. SQLite has a single writer, so the
// pool is pinned to one connection; this also keeps in-memory databases
// alive for the life of the store.
func openSQLite(ctx context.Context, dsn string) (*sql.DB, dialect, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dialect{}, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dialect{}, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	return db, dialect{
		name: "sqlite",
		migrationDriver: func(db *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		},
		isUniqueViolation: func(err error) bool {
			var sqliteErr *sqlite.Error
			if !errors.As(err, &sqliteErr) {
				return false
			}
			code := sqliteErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		},
	}, nil
}
