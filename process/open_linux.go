//go:build linux

package process

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// linuxProcess reads memory with process_vm_readv. Games running under Wine
// or Proton show their PE modules in /proc/<pid>/maps, so the same backend
// serves them.
type linuxProcess struct {
	pid int32

	mu     sync.Mutex
	closed bool
}

// Open opens the process for memory access.
func Open(pid int32) (Process, error) {
	if !pidExists(pid) {
		return nil, fmt.Errorf("open pid %d: %w", pid, ErrProcessClosed)
	}

	return &linuxProcess{pid: pid}, nil
}

func (p *linuxProcess) PID() int32 {
	return p.pid
}

func (p *linuxProcess) ModuleAddress(name string) (uint64, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return 0, fmt.Errorf("read maps: %w", err)
	}
	defer f.Close()

	base, found := findModuleBase(bufio.NewScanner(f), name)
	if !found {
		return 0, fmt.Errorf("%s: %w", name, ErrModuleNotFound)
	}

	return base, nil
}

func (p *linuxProcess) ReadMemory(addr uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	if !p.IsOpen() {
		return ErrProcessClosed
	}

	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(int(p.pid), local, remote, 0)
	if err != nil {
		return fmt.Errorf("%w at 0x%x: %v", ErrReadFailed, addr, err)
	}

	if n != len(buf) {
		return fmt.Errorf("%w at 0x%x: short read %d/%d",
			ErrReadFailed, addr, n, len(buf))
	}

	return nil
}

func (p *linuxProcess) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	return pidExists(p.pid)
}

func (p *linuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	return nil
}
