// Package database centralises sqlx connection helpers for the label store.
// The driver is go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(dsn)                       – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, opts) – fine-grained control plus password injection.
//	Migrate(ctx, db)                – idempotent schema bootstrap.
//
// Both Open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes the pool.  Password, when set, replaces whatever password
// the DSN carries so secrets can live in Vault instead of the YAML file.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Password        string
}

// DefaultOptions mirrors the sizes Open uses.
var DefaultOptions = Options{
	MaxOpenConns:    10,
	MaxIdleConns:    4,
	ConnMaxLifetime: 30 * time.Minute,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(context.Background(), dsn, DefaultOptions)
}

// OpenWithOptions normalises the DSN, opens the pool, and pings it.
func OpenWithOptions(ctx context.Context, dsn string, opts Options) (*sqlx.DB, error) {
	norm, err := NormalizeDSN(dsn, opts.Password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", norm)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NormalizeDSN forces the driver flags the store relies on:
//
//   - parseTime       – scan DATETIME/TIMESTAMP into time.Time.
//   - clientFoundRows – UPDATE reports matched rows, so re-marking an
//     already printed code still counts as success.
//   - loc=UTC         – timestamps round-trip without zone drift.
func NormalizeDSN(dsn, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
