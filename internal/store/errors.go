package store

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a save ID does not exist.
var ErrNotFound = eris.New("save not found")

// ErrIncompatibleSave indicates a save written by an incompatible format.
type ErrIncompatibleSave struct {
	Version string
	Want    string
}

func (e *ErrIncompatibleSave) Error() string {
	return fmt.Sprintf("incompatible save format %s (supported %s)", e.Version, e.Want)
}

// ErrInvalidSave indicates a save payload that fails to decode or validate.
type ErrInvalidSave struct {
	Err error
}

func (e *ErrInvalidSave) Error() string {
	return fmt.Sprintf("invalid save: %v", e.Err)
}

func (e *ErrInvalidSave) Unwrap() error { return e.Err }
