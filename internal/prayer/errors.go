package prayer

import (
	"errors"
	"fmt"
)

// ErrLookup marks every failed prayer-times lookup.
var ErrLookup = errors.New("prayer times lookup failed")

// LookupError is returned by Fetch for transport, status and payload failures.
type LookupError struct {
	City string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("prayer times for %s: %v", e.City, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrLookup }
