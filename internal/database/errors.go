package database

import (
	"errors"
	"fmt"
)

var (
	// ErrStore marks every failure of the preference store.
	ErrStore = errors.New("preference store error")
	// ErrUserNotFound is returned by GetPreference for an unknown user.
	ErrUserNotFound = errors.New("user not found")
)

// StoreError describes a failed store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
