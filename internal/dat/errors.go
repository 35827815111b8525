package dat

import (
	"errors"
	"fmt"
)

// ErrFieldCountMismatch is matched by every *FieldCountError.
var ErrFieldCountMismatch = errors.New("field count mismatch")

// FieldCountError reports a record whose field count differs from its header.
type FieldCountError struct {
	Line     int // logical line number, 1 = header; 0 when unknown
	Expected int
	Actual   int
	Raw      string
}

func (e *FieldCountError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: expected %d fields, got %d", e.Line, e.Expected, e.Actual)
	}
	return fmt.Sprintf("expected %d fields, got %d", e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrFieldCountMismatch) match.
func (e *FieldCountError) Is(target error) bool {
	return target == ErrFieldCountMismatch
}
