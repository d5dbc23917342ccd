package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// openMySQL opens a MySQL connection pool. The DSN must carry
// parseTime=true for DATETIME columns to scan into time.Time.
func openMySQL(ctx context.Context, dsn string) (*sql.DB, dialect, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, dialect{}, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dialect{}, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return db, dialect{
		name: "mysql",
		migrationDriver: func(db *sql.DB) (database.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{})
		},
		isUniqueViolation: func(err error) bool {
			var myErr *mysql.MySQLError
			return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
		},
	}, nil
}
