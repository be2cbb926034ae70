package pulse

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSignalDetected means the line never went High within the arm timeout.
	ErrNoSignalDetected = errors.New("no signal detected")

	// ErrRadioNotConfigured means replay was requested before radio setup.
	ErrRadioNotConfigured = errors.New("radio not configured")

	// ErrHardwareRead matches a *HardwareError from a line read.
	ErrHardwareRead = errors.New("hardware read error")

	// ErrHardwareWrite matches a *HardwareError from a line write.
	ErrHardwareWrite = errors.New("hardware write error")

	// ErrReplay matches any *ReplayError.
	ErrReplay = errors.New("replay failed")
)

// Op names the line access that failed.
type Op string

const (
	OpRead      Op = "read"
	OpWrite     Op = "write"
	OpConfigure Op = "configure"
)

// HardwareError is a failed line access at the platform level.
type HardwareError struct {
	Op  Op
	Err error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("line %s: %v", e.Op, e.Err)
}

func (e *HardwareError) Unwrap() error { return e.Err }

// Is matches ErrHardwareRead for reads and ErrHardwareWrite for writes and
// reconfiguration.
func (e *HardwareError) Is(target error) bool {
	switch target {
	case ErrHardwareRead:
		return e.Op == OpRead
	case ErrHardwareWrite:
		return e.Op == OpWrite || e.Op == OpConfigure
	}
	return false
}

// ReplayError is a failure while driving a sequence. Step is the index of the
// entry being played, -1 before the first entry and len(sequence) during cleanup.
type ReplayError struct {
	Step int
	Err  error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay failed at step %d: %v", e.Step, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

func (e *ReplayError) Is(target error) bool { return target == ErrReplay }
