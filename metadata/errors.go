package metadata

import (
	"errors"
	"fmt"
)

// ErrNoRecognizedKeys is returned when a settings block contains none of
// the keys this package understands. Such blocks carry nothing worth
// keeping and are skipped during the merge.
var ErrNoRecognizedKeys = errors.New("no recognized metadata keys")

// ValueError describes a settings value with the wrong shape for its key.
type ValueError struct {
	Key     string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("metadata key %q: %s (got %T)", e.Key, e.Message, e.Value)
}
