package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yanizio/jye-barcode/internal/barcode"
	"github.com/yanizio/jye-barcode/internal/domain"
)

// Memory is an in-process Gateway with the same semantics as MySQL.  Used
// by tests and by `database.driver: memory` for local runs.
type Memory struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Record
	byCode map[string]string // code → id
	opts   options
}

// NewMemory returns an empty store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		byID:   make(map[string]*domain.Record),
		byCode: make(map[string]string),
		opts:   buildOptions(opts),
	}
}

func (m *Memory) Exists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byCode[code]
	return ok, nil
}

func (m *Memory) Insert(ctx context.Context, wildcard, sku string) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code := barcode.Build(wildcard, sku)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byCode[code]; taken {
		return nil, fmt.Errorf("code %s: %w", code, domain.ErrDuplicateCode)
	}
	rec := &domain.Record{
		ID:        m.opts.newID(),
		Code:      code,
		Wildcard:  strings.TrimSpace(wildcard),
		SKU:       strings.TrimSpace(sku),
		CreatedAt: stamp(m.opts.now()),
	}
	m.byID[rec.ID] = rec
	m.byCode[code] = rec.ID

	out := *rec
	return &out, nil
}

func (m *Memory) Query(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]domain.Record, 0, len(m.byID))
	for _, rec := range m.byID {
		if f.Matches(*rec) {
			out = append(out, copyRecord(rec))
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) MarkPrinted(ctx context.Context, ids []string) domain.MarkResult {
	var res domain.MarkResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, domain.MarkFailure{ID: id, Err: err})
			continue
		}

		m.mu.Lock()
		rec, ok := m.byID[id]
		if ok {
			rec.Printed = true
			if rec.PrintedAt == nil {
				at := stamp(m.opts.now())
				rec.PrintedAt = &at
			}
		}
		m.mu.Unlock()

		if !ok {
			res.Failed = append(res.Failed, domain.MarkFailure{
				ID: id, Err: fmt.Errorf("record %s: %w", id, domain.ErrNotFound)})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

func (m *Memory) Find(ctx context.Context, q string) (*domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byCode[q]; ok {
		rec := copyRecord(m.byID[id])
		return &rec, nil
	}

	var best *domain.Record
	for _, rec := range m.byID {
		if rec.SKU != q {
			continue
		}
		if best == nil || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
		}
	}
	if best == nil {
		return nil, fmt.Errorf("search %q: %w", q, domain.ErrNotFound)
	}
	rec := copyRecord(best)
	return &rec, nil
}

func (m *Memory) DistinctWildcards(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, rec := range m.byID {
		seen[rec.Wildcard] = struct{}{}
	}
	m.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out, nil
}

// copyRecord detaches the PrintedAt pointer from stored state.
func copyRecord(rec *domain.Record) domain.Record {
	out := *rec
	if rec.PrintedAt != nil {
		at := *rec.PrintedAt
		out.PrintedAt = &at
	}
	return out
}

// sortNewestFirst orders by created_at descending, then by code for a
// stable result when stamps collide.
func sortNewestFirst(recs []domain.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].Code < recs[j].Code
	})
}
