package label

import "github.com/yanizio/jye-barcode/internal/domain"

const (
	MinQuantity        = 1
	DefaultMaxQuantity = 100

	// LargeRun is the copy count above which operators should check the
	// printer's label stock before sending the file.
	LargeRun = 50
)

// ValidateQuantity bounds-checks a copy count.  limit <= 0 selects
// DefaultMaxQuantity.
func ValidateQuantity(n, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxQuantity
	}
	if n < MinQuantity {
		return domain.NewFieldError("quantity", domain.ErrBelowMinimum,
			"quantity must be at least %d", MinQuantity)
	}
	if n > limit {
		return domain.NewFieldError("quantity", domain.ErrAboveMaximum,
			"quantity cannot exceed %d copies", limit)
	}
	return nil
}
