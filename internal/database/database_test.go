// internal/database/database_test.go
//
// DSN normalisation and schema bootstrap, exercised with sqlmock.
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func TestNormalizeDSN(t *testing.T) {
	out, err := NormalizeDSN("labels:old@tcp(db:3306)/jye", "s3cret")
	if err != nil {
		t.Fatalf("NormalizeDSN error: %v", err)
	}

	cfg, err := mysql.ParseDSN(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if cfg.Passwd != "s3cret" {
		t.Fatalf("password not injected: %q", cfg.Passwd)
	}
	if !cfg.ParseTime || !cfg.ClientFoundRows {
		t.Fatalf("flags not forced: parseTime=%v clientFoundRows=%v", cfg.ParseTime, cfg.ClientFoundRows)
	}
	if cfg.DBName != "jye" || cfg.Addr != "db:3306" {
		t.Fatalf("dsn mangled: %s", out)
	}
}

func TestNormalizeDSN_KeepsPasswordWhenEmpty(t *testing.T) {
	out, err := NormalizeDSN("labels:keep@tcp(db:3306)/jye", "")
	if err != nil {
		t.Fatalf("NormalizeDSN error: %v", err)
	}
	if !strings.HasPrefix(out, "labels:keep@") {
		t.Fatalf("password dropped: %s", out)
	}
}

func TestNormalizeDSN_Invalid(t *testing.T) {
	if _, err := NormalizeDSN("not a dsn", ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMigrate(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS codigos_barras`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), sqlx.NewDb(mockDB, "mysql")); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestMigrate_Error(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer mockDB.Close()

	boom := errors.New("access denied")
	mock.ExpectExec(`CREATE TABLE`).WillReturnError(boom)

	if err := Migrate(context.Background(), sqlx.NewDb(mockDB, "mysql")); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
