package extstr

import (
	"errors"
	"fmt"
)

// ErrAttributeNotFound is wrapped by every AttributeError.
var ErrAttributeNotFound = errors.New("attribute not found")

// AttributeError is returned when a name is neither an attached attribute nor
// a function in the registry used for the lookup.
type AttributeError struct {
	Type string
	Name string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("'%s' object has no attribute '%s'", e.Type, e.Name)
}

func (e *AttributeError) Unwrap() error {
	return ErrAttributeNotFound
}
