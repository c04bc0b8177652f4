package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

const connectAttempts = 10

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, driver Driver, dsn string, logger *logrus.Logger) (*sql.DB, error) {
	switch driver {
	case Postgres:
		return openPostgres(ctx, dsn, logger)
	case SQLite:
		return openSQLite(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openPostgres(ctx context.Context, dsn string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// The database container usually starts alongside the app.
	for i := 1; i <= connectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.WithError(err).Warnf("waiting for database (%d/%d)", i, connectAttempts)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migratePostgres(dsn); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("postgres migrations applied")

	return db, nil
}

// migratePostgres uses its own connection because closing the migrator
// closes the database handle it was given.
func migratePostgres(dsn string) error {
	mdb, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(mdb, &postgres.Config{})
	if err != nil {
		mdb.Close()
		return fmt.Errorf("could not start postgres migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		mdb.Close()
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		mdb.Close()
		return fmt.Errorf("migration failed to start: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}
	return nil
}

func openSQLite(ctx context.Context, path string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; also keeps a ":memory:" database alive on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL;", "PRAGMA synchronous = NORMAL;")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	sub, err := fs.Sub(migrationsFS, "migrations/sqlite")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not read embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("goose up failed: %w", err)
	}
	for _, r := range results {
		logger.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"duration": r.Duration,
		}).Debug("sqlite migration applied")
	}

	return db, nil
}

// sqliteDSN asks the driver to store timestamps in a sortable text layout.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_time_format=sqlite"
	}
	return path + "?_time_format=sqlite"
}
