package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwner is returned when a caller other than the configured owner
	// attempts a catalog mutation.
	ErrNotOwner = errors.New("caller is not the catalog owner")

	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidName is returned for an empty product name.
	ErrInvalidName = errors.New("product name is required")

	// ErrMissingCaller is returned when no caller identity was supplied.
	ErrMissingCaller = errors.New("caller identity is required")

	// ErrProductNotFound is returned for an unknown name or an out-of-range
	// identifier.
	ErrProductNotFound = errors.New("product not found")

	// ErrPurchaseOpen is returned when a buyer tries to buy a product while
	// already holding an unreturned purchase of it.
	ErrPurchaseOpen = errors.New("buyer already holds an open purchase of this product")

	// ErrNoOpenPurchase is returned when a buyer tries to return a product
	// they have not bought (or have already returned).
	ErrNoOpenPurchase = errors.New("buyer has no open purchase of this product")

	// ErrReturnWindowExpired is returned when the return window has elapsed
	// since the buyer's purchase.
	ErrReturnWindowExpired = errors.New("return window has expired")

	// ErrInsufficientStock is the target for errors.Is checks against
	// *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports a purchase request that exceeds the current
// stock. Callers branch on it, so it carries the product identity and both
// quantities rather than just a message.
type InsufficientStockError struct {
	ProductID int
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %q (id %d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
