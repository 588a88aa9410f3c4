package preset

import (
	"errors"
	"fmt"
)

// ErrInvalidIndex is returned when a preset slot is outside [0, PresetCount).
var ErrInvalidIndex = errors.New("invalid preset index")

// StorageError reports persisted data that is absent or malformed. At boot
// it means the caller should fall back to InitializeDefaults. Media faults
// are returned as plain wrapped errors so they are never mistaken for an
// empty flash.
type StorageError struct {
	// Op is the store operation, e.g. "load".
	Op string
	// Key is the medium key involved.
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func invalidIndex(i, count int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, i, count)
}
