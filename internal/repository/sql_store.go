package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"giftlist-api/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

// dialect captures what differs between the supported SQL engines.
type dialect struct {
	name string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool

	// migrationDriver wraps db for golang-migrate.
	migrationDriver func(db *sql.DB) (database.Driver, error)

	// isUniqueViolation reports whether err is a unique constraint failure.
	isUniqueViolation func(err error) bool
}

// SQLStore implements Store on database/sql. Queries are written with ?
// placeholders and rebound for the dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	log     logrus.FieldLogger
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Open connects to the database selected by cfg.Type, applies the embedded
// migrations and returns the store.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*SQLStore, error) {
	log = log.WithField("component", "store")

	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch cfg.Type {
	case "postgres", "postgresql":
		db, d, err = openPostgres(ctx, cfg.PostgresDSN())
	case "mysql":
		db, d, err = openMySQL(ctx, cfg.MySQLDSN())
	default:
		db, d, err = openSQLite(ctx, cfg.SQLiteDSN())
	}
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", d.name, err)
	}

	log.WithField("dialect", d.name).Info("Store initialized")
	return &SQLStore{db: db, dialect: d, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

// runMigrations applies every pending up migration for the dialect. The
// migrate instance is not closed since that would close db.
func runMigrations(db *sql.DB, d dialect) error {
	src, err := iofs.New(migrationsFS, "migrations/"+d.name)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := d.migrationDriver(db)
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, d.name, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

// execAffected runs an UPDATE or DELETE and reports whether a row changed.
func (s *SQLStore) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
