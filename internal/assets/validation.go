package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName accepts bare names only: no separators, no dots, not empty.
// The loaders append the extension themselves.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
