// internal/executor/errors.go
package executor

import (
	"fmt"

	"github.com/voxweb/voxweb/api/schemas"
)

// ElementNotFoundError reports that no element on the page matched a locator.
type ElementNotFoundError struct {
	Locator schemas.Locator
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element matched locator %s", e.Locator)
}

// StaleReferenceError reports that an element id belongs to a superseded
// snapshot and can no longer be trusted.
type StaleReferenceError struct {
	ElementID string
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("element id %q references a stale snapshot", e.ElementID)
}
