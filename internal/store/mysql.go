// internal/store/mysql.go
//
// MySQL gateway over the `codigos_barras` table.
//
// Workflow
// --------
//  1. Callers supply a *sqlx.DB opened through internal/database, so
//     parseTime and clientFoundRows are already forced on.
//  2. Fixed lookups use parameterised constants; the filtered listing is
//     assembled with squirrel so absent filters add no predicates.
//  3. Driver errors are mapped once, in mapError, to the domain kinds.
//
// Notes
// -----
//   - Column list matches domain.Record; update both together.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/jye-barcode/internal/barcode"
	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/metrics"
)

const (
	table      = "codigos_barras"
	selectCols = "id, codigo_barras, comodin_proveedor, tbc_sku, impreso, fecha_creacion, fecha_impresion"

	// MySQL ER_DUP_ENTRY.
	errDupEntry = 1062
)

var columns = strings.Split(selectCols, ", ")

// MySQL implements Gateway.  Safe for concurrent use; all state lives in the
// connection pool.
type MySQL struct {
	db   *sqlx.DB
	opts options
}

// NewMySQL wraps an open pool.
func NewMySQL(db *sqlx.DB, opts ...Option) *MySQL {
	return &MySQL{db: db, opts: buildOptions(opts)}
}

// Exists reports whether code is already assigned.
func (s *MySQL) Exists(ctx context.Context, code string) (bool, error) {
	const q = `SELECT 1 FROM codigos_barras WHERE codigo_barras = ? LIMIT 1`

	var one int
	err := s.db.GetContext(ctx, &one, q, code)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError("exists", code, err)
	}
	return true, nil
}

// Insert stores a new record.  The unique index decides races; no prior
// Exists call is needed.
func (s *MySQL) Insert(ctx context.Context, wildcard, sku string) (*domain.Record, error) {
	const q = `INSERT INTO codigos_barras
	               (id, codigo_barras, comodin_proveedor, tbc_sku, impreso, fecha_creacion)
	           VALUES (?, ?, ?, ?, FALSE, ?)`

	rec := domain.Record{
		ID:        s.opts.newID(),
		Code:      barcode.Build(wildcard, sku),
		Wildcard:  strings.TrimSpace(wildcard),
		SKU:       strings.TrimSpace(sku),
		CreatedAt: stamp(s.opts.now()),
	}

	if _, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.Code, rec.Wildcard, rec.SKU, rec.CreatedAt); err != nil {
		return nil, mapError("insert", rec.Code, err)
	}
	return &rec, nil
}

// Query lists records matching f, newest first.
func (s *MySQL) Query(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	b := sq.Select(columns...).From(table)
	if f.Wildcard != nil {
		b = b.Where(sq.Eq{"comodin_proveedor": *f.Wildcard})
	}
	if f.Printed != nil {
		b = b.Where(sq.Eq{"impreso": *f.Printed})
	}
	if f.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"fecha_creacion": f.CreatedFrom.UTC()})
	}
	if f.CreatedTo != nil {
		b = b.Where(sq.LtOrEq{"fecha_creacion": f.CreatedTo.UTC()})
	}
	b = b.OrderBy("fecha_creacion DESC")

	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]domain.Record, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, mapError("query", "", err)
	}
	return rows, nil
}

// MarkPrinted flags each id as printed, one statement per id.  printed_at
// keeps its first value when a code is printed again.
func (s *MySQL) MarkPrinted(ctx context.Context, ids []string) domain.MarkResult {
	const q = `UPDATE codigos_barras
	              SET impreso = TRUE,
	                  fecha_impresion = COALESCE(fecha_impresion, ?)
	            WHERE id = ?`

	var res domain.MarkResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, domain.MarkFailure{ID: id, Err: err})
			continue
		}

		out, err := s.db.ExecContext(ctx, q, stamp(s.opts.now()), id)
		if err != nil {
			res.Failed = append(res.Failed, domain.MarkFailure{ID: id, Err: mapError("mark printed", id, err)})
			continue
		}
		n, err := out.RowsAffected()
		if err != nil {
			res.Failed = append(res.Failed, domain.MarkFailure{ID: id, Err: mapError("mark printed", id, err)})
			continue
		}
		if n == 0 {
			res.Failed = append(res.Failed, domain.MarkFailure{
				ID: id, Err: fmt.Errorf("record %s: %w", id, domain.ErrNotFound)})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

// Find tries q as a full code, then as a stored SKU.  The newest record
// wins when several wildcards share a SKU.
func (s *MySQL) Find(ctx context.Context, q string) (*domain.Record, error) {
	const byCode = `SELECT ` + selectCols + `
	                  FROM codigos_barras
	                 WHERE codigo_barras = ?
	                 LIMIT 1`
	const bySKU = `SELECT ` + selectCols + `
	                 FROM codigos_barras
	                WHERE tbc_sku = ?
	                ORDER BY fecha_creacion DESC
	                LIMIT 1`

	q = strings.TrimSpace(q)
	for _, stmt := range []string{byCode, bySKU} {
		var rec domain.Record
		err := s.db.GetContext(ctx, &rec, stmt, q)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, mapError("find", q, err)
		}
		return &rec, nil
	}
	return nil, fmt.Errorf("search %q: %w", q, domain.ErrNotFound)
}

// DistinctWildcards lists every wildcard in use, sorted.
func (s *MySQL) DistinctWildcards(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT comodin_proveedor
	             FROM codigos_barras
	            ORDER BY comodin_proveedor`

	out := make([]string, 0, 8)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, mapError("distinct wildcards", "", err)
	}
	return out, nil
}

// mapError converts driver errors to domain kinds.  Context errors pass
// through unchanged so callers can tell cancellation from outages.
func mapError(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return fmt.Errorf("code %s: %w", key, domain.ErrDuplicateCode)
	}

	metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
