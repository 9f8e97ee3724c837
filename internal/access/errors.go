package access

import (
	"errors"
	"fmt"
)

// ErrNotAccessible is what callers outside the core should report for both
// denials and missing entities, so that existence never leaks.
var ErrNotAccessible = errors.New("not accessible")

var (
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrNotAccessible)
	ErrNotFound         = fmt.Errorf("%w: not found", ErrNotAccessible)
)
