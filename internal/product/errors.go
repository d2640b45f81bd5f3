package product

import (
	"errors"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
)

// Classify maps repository errors onto the shared error kinds.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "item not found")
	case errors.Is(err, ErrNegativeStock):
		return apperr.Wrap(apperr.KindInvalidState, err, "stock cannot go below 0")
	case errors.Is(err, ErrDuplicateSKU):
		return apperr.Wrap(apperr.KindConflict, err, "sku already exists")
	default:
		return apperr.Wrap(apperr.KindInternal, err, "inventory storage")
	}
}
