package store

import (
	"errors"
	"fmt"
)

// ErrPersistence matches every *Error.
var ErrPersistence = errors.New("persistence error")

// Error is a failed read or write of a capture file.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrPersistence }
