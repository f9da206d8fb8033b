package catalog

import "errors"

// ErrNotFound is returned when a product id does not exist in the catalog so
// callers can abort an operation without changing state.
var ErrNotFound = errors.New("product not found")
