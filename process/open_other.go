//go:build !linux && !windows

package process

import "fmt"

// Open always fails on platforms without a memory backend.
func Open(pid int32) (Process, error) {
	return nil, fmt.Errorf("open pid %d: %w", pid, ErrUnsupported)
}
