// Package database owns the PostgreSQL connection behind the comment and post
// stores. The blog owns the posts table; this service only reads it, and
// writes to comments.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/config"
)

const startupPingTimeout = 5 * time.Second

// DB is the shared handle used by the repositories and the readiness route
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// New connects to the comments database. Startup fails fast when the server
// cannot be reached, so a misconfigured DSN never serves traffic.
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open comments database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("reach comments database at %s: %w", cfg.Host, err)
	}

	db := Wrap(sqlDB, log)
	db.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Comments database connected")
	return db, nil
}

// Wrap builds a DB around an open connection. Tests pass sqlmock or
// testcontainers connections through here.
func Wrap(sqlDB *sql.DB, log zerolog.Logger) *DB {
	return &DB{
		DB:  sqlDB,
		log: log.With().Str("component", "database").Logger(),
	}
}

// RunMigrations brings the comments schema up to date. A schema that is
// already current is not an error.
func (db *DB) RunMigrations(dir string) error {
	m, err := db.migrator(dir)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply comment migrations from %s: %w", dir, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		db.log.Warn().Uint("version", version).Msg("Comments schema is dirty")
	}

	db.log.Info().Uint("version", version).Str("dir", dir).Msg("Comments schema up to date")
	return nil
}

func (db *DB) migrator(dir string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	return m, nil
}

// HealthCheck backs the /ready route
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("comments database unreachable: %w", err)
	}
	return nil
}
