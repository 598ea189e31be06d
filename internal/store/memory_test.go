package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/jye-barcode/internal/domain"
)

// tickingClock advances one minute per call so insert order is observable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := fixedNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func TestMemoryInsertAndExists(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Insert(ctx, "385", "123")
	require.NoError(t, err)
	assert.Equal(t, "38500123", rec.Code)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Printed)
	assert.Nil(t, rec.PrintedAt)

	ok, err := m.Exists(ctx, "38500123")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.Insert(ctx, "385", "00123")
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestMemoryInsert_ConcurrentSameCode(t *testing.T) {
	m := NewMemory()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		dups int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Insert(context.Background(), "7", "7")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrDuplicateCode):
				dups++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 15, dups)
}

func TestMemoryQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithClock(tickingClock()))

	a, _ := m.Insert(ctx, "385", "1")
	b, _ := m.Insert(ctx, "385", "2")
	c, _ := m.Insert(ctx, "12", "3")
	m.MarkPrinted(ctx, []string{b.ID})

	all, err := m.Query(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	wc, unprinted := "385", false
	got, err := m.Query(ctx, domain.Filter{Wildcard: &wc, Printed: &unprinted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	from, to := b.CreatedAt, b.CreatedAt
	got, err = m.Query(ctx, domain.Filter{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	none := "999"
	got, err = m.Query(ctx, domain.Filter{Wildcard: &none})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryMarkPrinted(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithClock(tickingClock()))

	a, _ := m.Insert(ctx, "385", "1")
	res := m.MarkPrinted(ctx, []string{a.ID, "missing"})

	assert.Equal(t, []string{a.ID}, res.Succeeded)
	assert.Equal(t, []string{"missing"}, res.FailedIDs())
	assert.ErrorIs(t, res.Err(), domain.ErrNotFound)

	first, err := m.Find(ctx, a.Code)
	require.NoError(t, err)
	require.NotNil(t, first.PrintedAt)
	assert.True(t, first.Printed)

	// printing again keeps the original stamp
	res = m.MarkPrinted(ctx, []string{a.ID})
	assert.True(t, res.OK())
	again, _ := m.Find(ctx, a.Code)
	assert.True(t, first.PrintedAt.Equal(*again.PrintedAt))
}

func TestMemoryFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithClock(tickingClock()))

	_, _ = m.Insert(ctx, "1", "42")
	newer, _ := m.Insert(ctx, "2", "42")

	rec, err := m.Find(ctx, "00100042")
	require.NoError(t, err)
	assert.Equal(t, "1", rec.Wildcard)

	rec, err = m.Find(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, rec.ID)

	_, err = m.Find(ctx, "43")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryDistinctWildcards(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i, wc := range []string{"385", "12", "385"} {
		_, err := m.Insert(ctx, wc, fmt.Sprint(i+1))
		require.NoError(t, err)
	}

	got, err := m.DistinctWildcards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "385"}, got)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, _ := m.Insert(ctx, "9", "9")
	rec.Printed = true

	stored, err := m.Find(ctx, rec.Code)
	require.NoError(t, err)
	assert.False(t, stored.Printed)
}
