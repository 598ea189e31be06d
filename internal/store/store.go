// internal/store/store.go
//
// Persistence gateway for barcode records.
//
// Context
// -------
// The store is the only code that touches durable state.  Two
// implementations satisfy Gateway:
//
//   - MySQL  – sqlx + squirrel over the `codigos_barras` table.
//   - Memory – mutex-guarded maps for tests and database-less local runs.
//
// Contract
// --------
//   - Insert is an atomic insert-if-absent.  The unique index on the code is
//     the single source of truth; a conflict surfaces as ErrDuplicateCode and
//     is never retried.
//   - MarkPrinted walks ids sequentially with no cross-id transaction and
//     reports every id as succeeded or failed.
//   - Connectivity and permission failures wrap ErrStoreUnavailable.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"

	"github.com/yanizio/jye-barcode/internal/domain"
)

// Gateway is the storage contract the labeling service depends on.
type Gateway interface {
	Exists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, wildcard, sku string) (*domain.Record, error)
	Query(ctx context.Context, f domain.Filter) ([]domain.Record, error)
	MarkPrinted(ctx context.Context, ids []string) domain.MarkResult
	Find(ctx context.Context, q string) (*domain.Record, error)
	DistinctWildcards(ctx context.Context) ([]string, error)
}

// compile-time assertions
var (
	_ Gateway = (*MySQL)(nil)
	_ Gateway = (*Memory)(nil)
)
