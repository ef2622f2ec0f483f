package apperr

import (
	"errors"
	"fmt"

	"smartmes/internal/storage"
)

// FromStore translates record-store sentinels into the taxonomy. Anything
// else is wrapped with op and passed through as an I/O failure.
func FromStore(op, entity, key string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(op, entity, key)
	case errors.Is(err, storage.ErrDuplicateKey):
		return DuplicateKey(op, entity, key)
	case errors.Is(err, storage.ErrVersionConflict):
		return Conflict(op, entity, key)
	}

	return fmt.Errorf("%s: %w", op, err)
}
