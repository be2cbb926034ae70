package cloner

import "errors"

var (
	// ErrEmptyCapture means the line went High but no transition followed
	// within the window. Nothing is saved unless SaveEmpty is set.
	ErrEmptyCapture = errors.New("capture recorded no transitions")

	// ErrNoHardware is returned by sniff and play on a cloner built without
	// a radio or a data line.
	ErrNoHardware = errors.New("no radio or data line")

	// ErrNoStore is returned by the persistence operations of a cloner built
	// without a store.
	ErrNoStore = errors.New("no capture store")
)
