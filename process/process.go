// Package process attaches to running game processes and reads their memory.
package process

import (
	"context"
	"errors"
	"time"

	"github.com/sarchlab/autosplit/memory"
)

var (
	// ErrModuleNotFound is returned when a module is not loaded in the
	// process.
	ErrModuleNotFound = errors.New("module not found")

	// ErrProcessClosed is returned by operations on a process that has exited
	// or has been closed.
	ErrProcessClosed = errors.New("process closed")

	// ErrReadFailed is returned when a memory read could not be completed.
	ErrReadFailed = errors.New("memory read failed")

	// ErrUnsupported is returned on platforms without a memory backend.
	ErrUnsupported = errors.New("process memory access is not supported on this platform")
)

// A Process is an attached game process.
type Process interface {
	memory.Reader

	// PID returns the operating system process id.
	PID() int32

	// ModuleAddress returns the load address of the named module. Module
	// names are matched case-insensitively.
	ModuleAddress(name string) (uint64, error)

	// IsOpen returns false once the process has exited.
	IsOpen() bool

	// Close releases the handle to the process.
	Close() error
}

// A Finder looks up running processes by executable name.
type Finder interface {
	Find(ctx context.Context, name string) (pid int32, found bool, err error)
}

// An Opener opens a process for memory access.
type Opener func(pid int32) (Process, error)

// An Attacher blocks until a process with the given name can be attached.
type Attacher interface {
	Attach(ctx context.Context, name string) (Process, error)
}

// PollingAttacher attaches by polling a Finder at a fixed interval.
type PollingAttacher struct {
	Finder   Finder
	Open     Opener
	Interval time.Duration
}

// NewPollingAttacher creates an attacher that uses gopsutil to find the
// process and the platform backend to open it.
func NewPollingAttacher(interval time.Duration) *PollingAttacher {
	return &PollingAttacher{
		Finder:   GopsutilFinder{},
		Open:     Open,
		Interval: interval,
	}
}

// Attach returns the first process named name that can be opened. Lookup and
// open failures are retried; only the cancellation of ctx ends the wait.
func (a *PollingAttacher) Attach(
	ctx context.Context,
	name string,
) (Process, error) {
	interval := a.Interval
	if interval <= 0 {
		interval = time.Second
	}

	for {
		pid, found, err := a.Finder.Find(ctx, name)
		if err == nil && found {
			p, err := a.Open(pid)
			if err == nil {
				return p, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
