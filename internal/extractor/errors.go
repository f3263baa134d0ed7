// internal/extractor/errors.go
package extractor

import (
	"errors"
	"fmt"
)

// StructuralError marks an extraction response whose shape is unusable: no
// JSON payload, undecodable JSON, or a payload missing the required node and
// edge collections. Structural failures are retried; everything else is not.
type StructuralError struct {
	File   string
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural error for %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("structural error for %s: %s", e.File, e.Reason)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
