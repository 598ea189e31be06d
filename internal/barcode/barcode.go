// Package barcode validates the wildcard and SKU fields and composes the
// 8-digit internal code printed on each label.
//
// Layout of a code:
//
//	[ 3-digit provider wildcard ][ 5-digit TBC SKU ]
//	  "385"                        "98778"            → "38598778"
//	  "8"   → "008"                "99" → "00099"     → "00800099"
//
// No checksum is appended; the code only needs to be numeric and unique.
package barcode

import (
	"strings"

	"github.com/yanizio/jye-barcode/internal/domain"
)

const (
	WildcardWidth = 3
	SKUWidth      = 5
	CodeLength    = WildcardWidth + SKUWidth
)

// Validate checks both inputs.  Rules run in order (empty, numeric, length)
// and the wildcard is checked before the SKU within each rule.
func Validate(wildcard, sku string) error {
	wildcard = strings.TrimSpace(wildcard)
	sku = strings.TrimSpace(sku)

	if wildcard == "" {
		return domain.NewFieldError("wildcard", domain.ErrEmptyField, "provider wildcard cannot be empty")
	}
	if sku == "" {
		return domain.NewFieldError("sku", domain.ErrEmptyField, "TBC SKU cannot be empty")
	}

	if !isDigits(wildcard) {
		return domain.NewFieldError("wildcard", domain.ErrNonNumeric, "provider wildcard must contain digits only")
	}
	if !isDigits(sku) {
		return domain.NewFieldError("sku", domain.ErrNonNumeric, "TBC SKU must contain digits only")
	}

	if len(wildcard) > WildcardWidth {
		return domain.NewFieldError("wildcard", domain.ErrTooLong,
			"provider wildcard cannot exceed %d digits", WildcardWidth)
	}
	if len(sku) > SKUWidth {
		return domain.NewFieldError("sku", domain.ErrTooLong,
			"TBC SKU cannot exceed %d digits", SKUWidth)
	}
	return nil
}

// Build pads and concatenates.  Inputs must already pass Validate.
func Build(wildcard, sku string) string {
	return pad(strings.TrimSpace(wildcard), WildcardWidth) + pad(strings.TrimSpace(sku), SKUWidth)
}

// ValidateCode accepts exactly CodeLength ASCII digits.
func ValidateCode(code string) error {
	switch {
	case code == "":
		return domain.NewFieldError("code", domain.ErrEmptyField, "barcode cannot be empty")
	case !isDigits(code):
		return domain.NewFieldError("code", domain.ErrNonNumeric, "barcode must contain digits only")
	case len(code) > CodeLength:
		return domain.NewFieldError("code", domain.ErrTooLong, "barcode must have %d digits", CodeLength)
	case len(code) < CodeLength:
		return domain.NewFieldError("code", domain.ErrMalformed, "barcode must have %d digits", CodeLength)
	}
	return nil
}

// ValidateQuery checks a search term: a full code or a stored SKU.
func ValidateQuery(q string) error {
	q = strings.TrimSpace(q)
	switch {
	case q == "":
		return domain.NewFieldError("query", domain.ErrEmptyField, "enter a barcode or SKU to search")
	case !isDigits(q):
		return domain.NewFieldError("query", domain.ErrNonNumeric, "barcode or SKU must contain digits only")
	case len(q) > CodeLength:
		return domain.NewFieldError("query", domain.ErrTooLong, "search term cannot exceed %d digits", CodeLength)
	}
	return nil
}

func pad(s string, width int) string {
	if n := width - len(s); n > 0 {
		return strings.Repeat("0", n) + s
	}
	return s
}

// isDigits is ASCII-only on purpose: unicode.IsDigit would admit
// full-width and Arabic-Indic digits the printer cannot encode.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
