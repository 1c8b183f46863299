package cart

import "errors"

var (
	// ErrAccountNotFound means the account document could not be loaded.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProductNotFound means the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrNotInCart means an update targeted a product with no cart entry.
	ErrNotInCart = errors.New("product not found in cart")

	// ErrInsufficientStock means the requested quantity exceeds what the
	// product's stock can cover.
	ErrInsufficientStock = errors.New("insufficient stock")
)
