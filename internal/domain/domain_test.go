package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFilterMatches(t *testing.T) {
	day := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	rec := Record{Wildcard: "385", Printed: true, CreatedAt: day}

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"wildcard hit", Filter{Wildcard: ptr("385")}, true},
		{"wildcard miss", Filter{Wildcard: ptr("386")}, false},
		{"printed miss", Filter{Printed: ptr(false)}, false},
		{"range inclusive", Filter{CreatedFrom: ptr(day), CreatedTo: ptr(day)}, true},
		{"before range", Filter{CreatedFrom: ptr(day.Add(time.Second))}, false},
		{"after range", Filter{CreatedTo: ptr(day.Add(-time.Second))}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.f.Matches(rec))
		})
	}
}

func TestFilterValidate(t *testing.T) {
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, Filter{CreatedFrom: ptr(day), CreatedTo: ptr(day)}.Validate())
	assert.NoError(t, Filter{CreatedTo: ptr(day)}.Validate())

	err := Filter{CreatedFrom: ptr(day), CreatedTo: ptr(day.Add(-time.Hour))}.Validate()
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.True(t, IsValidation(err))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" 385 ", "false", "2026-01-09", "2026-01-09")
	require.NoError(t, err)
	assert.Equal(t, "385", *f.Wildcard)
	assert.False(t, *f.Printed)

	late := time.Date(2026, 1, 9, 23, 59, 59, 999999000, time.UTC)
	assert.True(t, f.Matches(Record{Wildcard: "385", CreatedAt: late}))
	assert.False(t, f.Matches(Record{Wildcard: "385", CreatedAt: late.Add(time.Microsecond)}))

	f, err = ParseFilter("", "", "", "2026-01-09T10:00:00+02:00")
	require.NoError(t, err)
	assert.Nil(t, f.Wildcard)
	assert.Nil(t, f.Printed)
	assert.Equal(t, time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC), *f.CreatedTo)

	for _, in := range [][4]string{
		{"", "maybe", "", ""},
		{"", "", "09/01/2026", ""},
		{"", "", "", "tomorrow"},
	} {
		_, err := ParseFilter(in[0], in[1], in[2], in[3])
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

func TestMarkResult(t *testing.T) {
	ok := MarkResult{Succeeded: []string{"a", "b"}}
	assert.True(t, ok.OK())
	assert.NoError(t, ok.Err())
	assert.Empty(t, ok.FailedIDs())

	boom := errors.New("boom")
	partial := MarkResult{
		Succeeded: []string{"a"},
		Failed: []MarkFailure{
			{ID: "b", Err: ErrNotFound},
			{ID: "c", Err: boom},
		},
	}
	assert.False(t, partial.OK())
	assert.Equal(t, []string{"b", "c"}, partial.FailedIDs())
	assert.ErrorIs(t, partial.Err(), ErrNotFound)
	assert.ErrorIs(t, partial.Err(), boom)
}

func TestErrorKinds(t *testing.T) {
	fe := NewFieldError("sku", ErrTooLong, "at most %d characters", 5)
	assert.Equal(t, "sku: at most 5 characters", fe.Error())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", fe), ErrTooLong)
	assert.Equal(t, "code: field is empty", (&FieldError{Field: "code", Kind: ErrEmptyField}).Error())

	assert.True(t, IsValidation(fe))
	assert.True(t, IsValidation(ErrAboveMaximum))
	assert.False(t, IsValidation(ErrDuplicateCode))
	assert.False(t, IsValidation(ErrStoreUnavailable))

	ue := &UnrecordedError{FailedIDs: []string{"x", "y"}, Cause: ErrStoreUnavailable}
	assert.ErrorIs(t, ue, ErrRenderedNotRecorded)
	assert.ErrorIs(t, ue, ErrStoreUnavailable)
	assert.Contains(t, ue.Error(), "2 id(s) not updated [x, y]")

	var target *UnrecordedError
	assert.True(t, errors.As(fmt.Errorf("batch: %w", ue), &target))
	assert.ErrorIs(t, &UnrecordedError{}, ErrRenderedNotRecorded)
}
