package labeling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/label"
	"github.com/yanizio/jye-barcode/internal/store"
)

// spyGateway wraps the in-memory store, counts calls, and can fail chosen
// ids during MarkPrinted.
type spyGateway struct {
	*store.Memory
	calls     atomic.Int32
	wildcards atomic.Int32
	failIDs   map[string]error
	gate      chan struct{} // when set, DistinctWildcards blocks on it
}

func newSpy() *spyGateway { return &spyGateway{Memory: store.NewMemory()} }

func (g *spyGateway) Insert(ctx context.Context, wildcard, sku string) (*domain.Record, error) {
	g.calls.Add(1)
	return g.Memory.Insert(ctx, wildcard, sku)
}

func (g *spyGateway) Exists(ctx context.Context, code string) (bool, error) {
	g.calls.Add(1)
	return g.Memory.Exists(ctx, code)
}

func (g *spyGateway) MarkPrinted(ctx context.Context, ids []string) domain.MarkResult {
	g.calls.Add(1)
	var pass []string
	var res domain.MarkResult
	for _, id := range ids {
		if err, ok := g.failIDs[id]; ok {
			res.Failed = append(res.Failed, domain.MarkFailure{ID: id, Err: err})
			continue
		}
		pass = append(pass, id)
	}
	inner := g.Memory.MarkPrinted(ctx, pass)
	res.Succeeded = inner.Succeeded
	res.Failed = append(res.Failed, inner.Failed...)
	return res
}

func (g *spyGateway) DistinctWildcards(ctx context.Context) ([]string, error) {
	g.wildcards.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	return g.Memory.DistinctWildcards(ctx)
}

func newService(t *testing.T, gw store.Gateway) *Service {
	t.Helper()
	svc, err := New(gw, Config{Dialect: label.EPL, MaxQuantity: 100})
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return time.Date(2026, 5, 2, 14, 3, 9, 0, time.UTC) })
	return svc
}

func TestGenerate(t *testing.T) {
	gw := newSpy()
	svc := newService(t, gw)

	res, err := svc.Generate(context.Background(), GenerateRequest{
		Wildcard: "385", SKU: "98778", Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "38598778", res.Record.Code)
	assert.False(t, res.Record.Printed)
	assert.Equal(t, "38598778.epl", res.File.Name)
	assert.Equal(t, 3, res.File.Labels)
	assert.Contains(t, res.File.Content, `B100,50,0,1,2,4,60,N,"38598778"`)
	assert.Contains(t, res.File.Content, "P3\n")

	zpl, err := svc.Generate(context.Background(), GenerateRequest{
		Wildcard: "8", SKU: "99", Quantity: 1, Dialect: label.ZPL,
	})
	require.NoError(t, err)
	assert.Equal(t, "00800099.zpl", zpl.File.Name)
	assert.Contains(t, zpl.File.Content, "^FD00800099^FS")
}

func TestGenerate_Duplicate(t *testing.T) {
	svc := newService(t, newSpy())
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateRequest{Wildcard: "52", SKU: "1234", Quantity: 1})
	require.NoError(t, err)

	_, err = svc.Generate(ctx, GenerateRequest{Wildcard: "052", SKU: "01234", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestGenerate_ValidationBeforeStore(t *testing.T) {
	cases := []struct {
		name string
		req  GenerateRequest
		kind error
	}{
		{"empty wildcard", GenerateRequest{Wildcard: " ", SKU: "1", Quantity: 1}, domain.ErrEmptyField},
		{"letters", GenerateRequest{Wildcard: "12", SKU: "ab", Quantity: 1}, domain.ErrNonNumeric},
		{"long sku", GenerateRequest{Wildcard: "12", SKU: "123456", Quantity: 1}, domain.ErrTooLong},
		{"zero qty", GenerateRequest{Wildcard: "12", SKU: "1", Quantity: 0}, domain.ErrBelowMinimum},
		{"big qty", GenerateRequest{Wildcard: "12", SKU: "1", Quantity: 101}, domain.ErrAboveMaximum},
		{"dialect", GenerateRequest{Wildcard: "12", SKU: "1", Quantity: 1, Dialect: "dpl"}, label.ErrUnknownDialect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newSpy()
			svc := newService(t, gw)

			_, err := svc.Generate(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.kind)
			assert.Zero(t, gw.calls.Load(), "store must not be touched")
		})
	}
}

func seed(t *testing.T, svc *Service, n int) []*domain.Record {
	t.Helper()
	out := make([]*domain.Record, 0, n)
	for i := 1; i <= n; i++ {
		res, err := svc.Generate(context.Background(), GenerateRequest{
			Wildcard: "385", SKU: fmt.Sprint(i), Quantity: 1,
		})
		require.NoError(t, err)
		out = append(out, res.Record)
	}
	return out
}

func TestBatchPrint(t *testing.T) {
	gw := newSpy()
	svc := newService(t, gw)
	recs := seed(t, svc, 2)

	res, err := svc.BatchPrint(context.Background(), BatchRequest{Items: []BatchItem{
		{ID: recs[0].ID, Code: recs[0].Code, Quantity: 2},
		{ID: recs[1].ID, Code: recs[1].Code, Quantity: 5},
	}})
	require.NoError(t, err)
	assert.Equal(t, "lote_20260502_140309.epl", res.File.Name)
	assert.Equal(t, 2, res.Codes)
	assert.Equal(t, 7, res.Labels)
	assert.True(t, res.Marked.OK())

	blocks := strings.Split(res.File.Content, "N\nq406")
	assert.Len(t, blocks, 3)
	assert.Less(t, strings.Index(res.File.Content, recs[0].Code), strings.Index(res.File.Content, recs[1].Code))

	printed := true
	list, err := svc.List(context.Background(), domain.Filter{Printed: &printed})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBatchPrint_PartialFailure(t *testing.T) {
	gw := newSpy()
	svc := newService(t, gw)
	recs := seed(t, svc, 3)

	lost := fmt.Errorf("%w: connection reset", domain.ErrStoreUnavailable)
	gw.failIDs = map[string]error{recs[1].ID: lost}

	items := make([]BatchItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, BatchItem{ID: r.ID, Code: r.Code, Quantity: 1})
	}
	res, err := svc.BatchPrint(context.Background(), BatchRequest{Items: items})

	require.NotNil(t, res, "file must be returned on partial failure")
	assert.NotEmpty(t, res.File.Content)
	assert.ErrorIs(t, err, domain.ErrRenderedNotRecorded)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	var ue *domain.UnrecordedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, []string{recs[1].ID}, ue.FailedIDs)
	assert.ElementsMatch(t, []string{recs[0].ID, recs[2].ID}, res.Marked.Succeeded)
}

func TestBatchPrint_Validation(t *testing.T) {
	gw := newSpy()
	svc := newService(t, gw)

	_, err := svc.BatchPrint(context.Background(), BatchRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyField)

	_, err = svc.BatchPrint(context.Background(), BatchRequest{Items: []BatchItem{
		{ID: "a", Code: "38500001", Quantity: 1},
		{ID: "b", Code: "38500002", Quantity: 0},
	}})
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)
	var fe *domain.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "items[1].quantity", fe.Field)

	_, err = svc.BatchPrint(context.Background(), BatchRequest{Items: []BatchItem{
		{ID: "a", Code: "3850", Quantity: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrMalformed)
	assert.Zero(t, gw.calls.Load())
}

func TestReprint(t *testing.T) {
	svc := newService(t, newSpy())
	recs := seed(t, svc, 1)

	file, err := svc.Reprint(context.Background(), ReprintRequest{Code: recs[0].Code, Quantity: 4, Dialect: label.ZPL})
	require.NoError(t, err)
	assert.Equal(t, recs[0].Code+".zpl", file.Name)
	assert.Contains(t, file.Content, "^PQ4\n")

	rec, err := svc.Search(context.Background(), recs[0].Code)
	require.NoError(t, err)
	assert.False(t, rec.Printed, "reprint must not change print status")

	_, err = svc.Reprint(context.Background(), ReprintRequest{Code: "99999999", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc := newService(t, newSpy())
	seed(t, svc, 1)

	rec, err := svc.Search(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "38500001", rec.Code)

	_, err = svc.Search(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyField)
	_, err = svc.Search(context.Background(), "12a")
	assert.ErrorIs(t, err, domain.ErrNonNumeric)
	_, err = svc.Search(context.Background(), "123456789")
	assert.ErrorIs(t, err, domain.ErrTooLong)
}

func TestList_InvalidRange(t *testing.T) {
	svc := newService(t, newSpy())
	from := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.List(context.Background(), domain.Filter{CreatedFrom: &from, CreatedTo: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestWildcards_CachedAndInvalidated(t *testing.T) {
	gw := newSpy()
	svc := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateRequest{Wildcard: "385", SKU: "1", Quantity: 1})
	require.NoError(t, err)

	got, err := svc.Wildcards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"385"}, got)

	_, _ = svc.Wildcards(ctx)
	assert.EqualValues(t, 1, gw.wildcards.Load(), "second call should hit the cache")

	_, err = svc.Generate(ctx, GenerateRequest{Wildcard: "12", SKU: "1", Quantity: 1})
	require.NoError(t, err)

	got, err = svc.Wildcards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "385"}, got)
	assert.EqualValues(t, 2, gw.wildcards.Load())
}

func TestWildcards_Coalesced(t *testing.T) {
	gw := newSpy()
	gw.gate = make(chan struct{})
	svc := newService(t, gw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Wildcards(context.Background())
			assert.NoError(t, err)
		}()
	}
	// let the callers pile up on the in-flight load
	require.Eventually(t, func() bool { return gw.wildcards.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gw.gate)
	wg.Wait()

	assert.EqualValues(t, 1, gw.wildcards.Load())
}

func TestWildcards_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gw := newSpy()
	gw.gate = make(chan struct{})
	svc := newService(t, gw)
	_, err := svc.Generate(context.Background(), GenerateRequest{Wildcard: "385", SKU: "1", Quantity: 1})
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Wildcards(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return gw.wildcards.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		list []string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		list, err := svc.Wildcards(context.Background())
		second <- result{list, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gw.gate)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []string{"385"}, got.list)
	assert.EqualValues(t, 1, gw.wildcards.Load())
}

func TestNew_RejectsUnknownDialect(t *testing.T) {
	_, err := New(store.NewMemory(), Config{Dialect: "dpl"})
	assert.ErrorIs(t, err, label.ErrUnknownDialect)
}
