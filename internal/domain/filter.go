package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter narrows a record query.  Every field is optional; nil imposes no
// constraint.  The created range is inclusive on both ends.
type Filter struct {
	Wildcard    *string
	Printed     *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Validate rejects a range whose end precedes its start.
func (f Filter) Validate() error {
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedTo.Before(*f.CreatedFrom) {
		return NewFieldError("to", ErrInvalidRange,
			"end date must be on or after the start date")
	}
	return nil
}

// Matches applies the filter to a single record.  The SQL gateway pushes the
// same predicates into its WHERE clause; this form serves in-memory stores.
func (f Filter) Matches(r Record) bool {
	if f.Wildcard != nil && r.Wildcard != *f.Wildcard {
		return false
	}
	if f.Printed != nil && r.Printed != *f.Printed {
		return false
	}
	if f.CreatedFrom != nil && r.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && r.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// ParseFilter builds a Filter from raw text inputs, as they arrive from a
// query string or command-line flags.  Empty inputs impose no constraint.
// Dates are YYYY-MM-DD or RFC 3339; a date-only upper bound covers the
// whole day.
func ParseFilter(wildcard, printed, from, to string) (Filter, error) {
	var f Filter

	if wc := strings.TrimSpace(wildcard); wc != "" {
		f.Wildcard = &wc
	}
	if printed != "" {
		b, err := strconv.ParseBool(printed)
		if err != nil {
			return f, NewFieldError("printed", ErrMalformed, "printed must be true or false")
		}
		f.Printed = &b
	}
	if from != "" {
		t, _, err := parseDate(from)
		if err != nil {
			return f, NewFieldError("from", ErrMalformed, "%v", err)
		}
		f.CreatedFrom = &t
	}
	if to != "" {
		t, dateOnly, err := parseDate(to)
		if err != nil {
			return f, NewFieldError("to", ErrMalformed, "%v", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		f.CreatedTo = &t
	}
	return f, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
}
