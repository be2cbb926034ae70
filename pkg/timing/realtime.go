package timing

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// RealtimeConfig controls how a busy-wait loop takes ownership of a CPU.
type RealtimeConfig struct {
	Enabled    bool `yaml:"enabled"`
	Priority   int  `yaml:"priority"`    // SCHED_FIFO priority, 1-99
	LockMemory bool `yaml:"lock_memory"` // mlockall for the duration of the hold
	Required   bool `yaml:"required"`    // fail instead of degrading when a step is refused
}

// DefaultRealtimePriority stays below the kernel's threaded IRQ handlers (50).
const DefaultRealtimePriority = 49

// Realtime is a held real-time execution context. Release undoes every change.
type Realtime struct {
	gcPercent int
	restoreGC bool
	prevSched *unix.SchedAttr
	lockedMem bool
	lockedOS  bool

	// Degraded lists the steps the host refused when Required is false.
	Degraded []error
}

// AcquireRealtime pins the calling goroutine to its OS thread and, as far as
// the host allows, raises it to SCHED_FIFO, locks memory and pauses the garbage
// collector. Call Release on the returned value from the same goroutine.
func AcquireRealtime(cfg RealtimeConfig) (*Realtime, error) {
	rt := &Realtime{}
	if !cfg.Enabled {
		return rt, nil
	}

	runtime.LockOSThread()
	rt.lockedOS = true

	priority := cfg.Priority
	if priority == 0 {
		priority = DefaultRealtimePriority
	}
	if priority < 1 || priority > 99 {
		rt.Release()
		return nil, fmt.Errorf("realtime priority %d out of range 1-99", priority)
	}

	prev, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		prev = &unix.SchedAttr{Policy: unix.SCHED_NORMAL}
	}
	attr := &unix.SchedAttr{
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(priority),
	}
	if err := unix.SchedSetAttr(0, attr, 0); err != nil {
		if err := rt.refuse(cfg, fmt.Errorf("failed to set SCHED_FIFO priority %d: %w", priority, err)); err != nil {
			return nil, err
		}
	} else {
		rt.prevSched = prev
	}

	if cfg.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			if err := rt.refuse(cfg, fmt.Errorf("failed to lock memory: %w", err)); err != nil {
				return nil, err
			}
		} else {
			rt.lockedMem = true
		}
	}

	// Collect now so the paused collector starts from a clean heap.
	runtime.GC()
	rt.gcPercent = debug.SetGCPercent(-1)
	rt.restoreGC = true

	return rt, nil
}

func (rt *Realtime) refuse(cfg RealtimeConfig, err error) error {
	if cfg.Required {
		rt.Release()
		return err
	}
	rt.Degraded = append(rt.Degraded, err)
	return nil
}

// Release restores the scheduler, memory and GC state captured on acquire.
func (rt *Realtime) Release() error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.restoreGC {
		debug.SetGCPercent(rt.gcPercent)
		rt.restoreGC = false
	}
	if rt.lockedMem {
		if err := unix.Munlockall(); err != nil {
			errs = append(errs, fmt.Errorf("failed to unlock memory: %w", err))
		}
		rt.lockedMem = false
	}
	if rt.prevSched != nil {
		if err := unix.SchedSetAttr(0, rt.prevSched, 0); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore scheduler: %w", err))
		}
		rt.prevSched = nil
	}
	if rt.lockedOS {
		runtime.UnlockOSThread()
		rt.lockedOS = false
	}
	return errors.Join(errs...)
}
