package utils

import (
	"github.com/pkg/errors"
)

// NewUnknownNameError is used when a named option (palette, control group, ...) is not
// one of the accepted values.
func NewUnknownNameError(kind, name string, accepted ...string) error {
	return errors.Errorf("unknown %s %q, must be one of %v", kind, name, accepted)
}
