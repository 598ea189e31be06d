// internal/labeling/service.go
//
// Labeling workflows: generate, batch print, reprint, search, list, and
// wildcard lookup.
//
// Context
// -------
// Every operation takes a request struct and returns a result struct; the
// service keeps no per-operator state between calls.  The HTTP API and the
// labelctl CLI are thin adapters over these methods.
//
// Workflow
// --------
//  1. Validate every input field.  A validation failure returns before any
//     store call, so nothing is written.
//  2. Select the renderer (request dialect, else the configured default).
//  3. Touch the store.
//  4. Render, count, and log.
//
// Notes
// -----
//   - Batch printing renders first and records second.  A recording failure
//     still returns the file, paired with *domain.UnrecordedError.
//   - Oxford commas, two spaces after periods.
package labeling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/jye-barcode/internal/barcode"
	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/label"
	"github.com/yanizio/jye-barcode/internal/metrics"
	"github.com/yanizio/jye-barcode/internal/store"
)

// DefaultWildcardTTL bounds how stale the wildcard picker list may get when
// records are written by another process.
const DefaultWildcardTTL = 30 * time.Second

// Config carries the tunables read from the `label` config section.
type Config struct {
	Dialect     label.Dialect
	MaxQuantity int
	WildcardTTL time.Duration
}

// Service implements the labeling workflows over a store.Gateway.
type Service struct {
	store   store.Gateway
	dialect label.Dialect
	maxQty  int
	now     func() time.Time
	wc      *wildcardCache
}

// New validates cfg and returns a ready Service.
func New(gw store.Gateway, cfg Config) (*Service, error) {
	if gw == nil {
		return nil, errors.New("labeling: nil store")
	}
	if _, err := label.ForDialect(cfg.Dialect); err != nil {
		return nil, err
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = label.DefaultMaxQuantity
	}
	if cfg.WildcardTTL <= 0 {
		cfg.WildcardTTL = DefaultWildcardTTL
	}
	return &Service{
		store:   gw,
		dialect: cfg.Dialect,
		maxQty:  cfg.MaxQuantity,
		now:     time.Now,
		wc:      newWildcardCache(gw, cfg.WildcardTTL),
	}, nil
}

// SetClock replaces time.Now for batch file names.  Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// MaxQuantity is the per-label copy limit in effect.
func (s *Service) MaxQuantity() int { return s.maxQty }

//
// Generate
//

type GenerateRequest struct {
	Wildcard string
	SKU      string
	Quantity int
	Dialect  label.Dialect // empty selects the configured default
}

type GenerateResult struct {
	Record *domain.Record
	File   label.File
}

// Generate registers a new code and renders its label file.  The record
// starts unprinted; only a batch print flips the flag.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := barcode.Validate(req.Wildcard, req.SKU); err != nil {
		return nil, err
	}
	if err := label.ValidateQuantity(req.Quantity, s.maxQty); err != nil {
		return nil, err
	}
	r, err := s.renderer(req.Dialect)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Insert(ctx, req.Wildcard, req.SKU)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			metrics.DuplicateCodesTotal.Inc()
		}
		return nil, err
	}
	metrics.CodesGeneratedTotal.Inc()
	s.wc.invalidate()

	file := label.SingleFile(r, rec.Code, req.Quantity)
	s.rendered(r.Dialect(), file.Labels)

	zap.L().Info("code generated",
		zap.String("code", rec.Code),
		zap.String("id", rec.ID),
		zap.Int("quantity", req.Quantity),
		zap.String("dialect", string(r.Dialect())))
	warnLargeRun(rec.Code, req.Quantity)

	return &GenerateResult{Record: rec, File: file}, nil
}

//
// Batch
//

// BatchItem is one selected record.  ID drives the status update and Code
// drives rendering; callers take both from a listed record.
type BatchItem struct {
	ID       string
	Code     string
	Quantity int
}

type BatchRequest struct {
	Items   []BatchItem
	Dialect label.Dialect
}

type BatchResult struct {
	File   label.File
	Marked domain.MarkResult
	Codes  int // distinct blocks in the file
	Labels int // total copies
}

// BatchPrint renders every item into one file and marks the ids printed.
// When some ids fail to record, the result is still returned together with
// a *domain.UnrecordedError.
func (s *Service) BatchPrint(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Items) == 0 {
		return nil, domain.NewFieldError("items", domain.ErrEmptyField, "select at least one code")
	}
	items := make([]label.Item, 0, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for i, it := range req.Items {
		if it.ID == "" {
			return nil, domain.NewFieldError(fmt.Sprintf("items[%d].id", i), domain.ErrEmptyField,
				"record id cannot be empty")
		}
		if err := barcode.ValidateCode(it.Code); err != nil {
			return nil, prefixField(err, fmt.Sprintf("items[%d].", i))
		}
		if err := label.ValidateQuantity(it.Quantity, s.maxQty); err != nil {
			return nil, prefixField(err, fmt.Sprintf("items[%d].", i))
		}
		items = append(items, label.Item{Code: it.Code, Quantity: it.Quantity})
		ids = append(ids, it.ID)
	}
	r, err := s.renderer(req.Dialect)
	if err != nil {
		return nil, err
	}

	file := label.BatchFile(r, items, s.now())
	s.rendered(r.Dialect(), file.Labels)
	warnLargeRun(file.Name, file.Labels)

	res := &BatchResult{
		File:   file,
		Codes:  len(items),
		Labels: file.Labels,
	}
	res.Marked = s.store.MarkPrinted(ctx, ids)

	log := zap.L().With(
		zap.String("file", file.Name),
		zap.Int("codes", res.Codes),
		zap.Int("labels", res.Labels))
	if res.Marked.OK() {
		log.Info("batch rendered")
		return res, nil
	}

	metrics.BatchesUnrecordedTotal.Inc()
	failed := res.Marked.FailedIDs()
	log.Warn("batch rendered but not recorded",
		zap.Strings("failed_ids", failed),
		zap.Error(res.Marked.Err()))
	return res, &domain.UnrecordedError{FailedIDs: failed, Cause: res.Marked.Err()}
}

//
// Reprint
//

type ReprintRequest struct {
	Code     string
	Quantity int
	Dialect  label.Dialect
}

// Reprint renders a label for an existing code.  Print status is left as
// is.
func (s *Service) Reprint(ctx context.Context, req ReprintRequest) (*label.File, error) {
	if err := barcode.ValidateCode(req.Code); err != nil {
		return nil, err
	}
	if err := label.ValidateQuantity(req.Quantity, s.maxQty); err != nil {
		return nil, err
	}
	r, err := s.renderer(req.Dialect)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.Exists(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("code %s: %w", req.Code, domain.ErrNotFound)
	}

	file := label.SingleFile(r, req.Code, req.Quantity)
	s.rendered(r.Dialect(), file.Labels)
	zap.L().Info("label reprinted", zap.String("code", req.Code), zap.Int("quantity", req.Quantity))
	warnLargeRun(req.Code, req.Quantity)
	return &file, nil
}

//
// Lookups
//

// Search finds a record by full code or by stored SKU.
func (s *Service) Search(ctx context.Context, q string) (*domain.Record, error) {
	if err := barcode.ValidateQuery(q); err != nil {
		return nil, err
	}
	return s.store.Find(ctx, q)
}

// List returns records matching f, newest first.
func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.store.Query(ctx, f)
}

// Exists reports whether code is registered.
func (s *Service) Exists(ctx context.Context, code string) (bool, error) {
	if err := barcode.ValidateCode(code); err != nil {
		return false, err
	}
	return s.store.Exists(ctx, code)
}

// Wildcards lists every wildcard in use, for filter pickers.
func (s *Service) Wildcards(ctx context.Context) ([]string, error) {
	return s.wc.get(ctx)
}

//
// helpers
//

func (s *Service) renderer(d label.Dialect) (label.Renderer, error) {
	if d == "" {
		d = s.dialect
	}
	return label.ForDialect(d)
}

func (s *Service) rendered(d label.Dialect, labels int) {
	metrics.LabelsRenderedTotal.WithLabelValues(string(d)).Add(float64(labels))
}

func warnLargeRun(subject string, labels int) {
	if labels > label.LargeRun {
		zap.L().Warn("large print run; check printer label stock",
			zap.String("subject", subject), zap.Int("labels", labels))
	}
}

// prefixField qualifies a FieldError's field with its batch position.
func prefixField(err error, prefix string) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return &domain.FieldError{Field: prefix + fe.Field, Kind: fe.Kind, Message: fe.Message}
	}
	return err
}
