//go:build windows

package process

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	listModulesAll = 0x03
	stillActive    = 259
	maxModules     = 1024
)

type windowsProcess struct {
	pid int32

	mu     sync.Mutex
	handle windows.Handle
}

// Open opens the process for memory access.
func Open(pid int32) (Process, error) {
	h, err := windows.OpenProcess(
		windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION,
		false,
		uint32(pid),
	)
	if err != nil {
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}

	return &windowsProcess{pid: pid, handle: h}, nil
}

func (p *windowsProcess) PID() int32 {
	return p.pid
}

func (p *windowsProcess) ModuleAddress(name string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return 0, ErrProcessClosed
	}

	modules := make([]windows.Handle, maxModules)
	var needed uint32

	err := windows.EnumProcessModulesEx(
		p.handle,
		&modules[0],
		uint32(len(modules))*uint32(unsafe.Sizeof(modules[0])),
		&needed,
		listModulesAll,
	)
	if err != nil {
		return 0, fmt.Errorf("enumerate modules: %w", err)
	}

	count := int(needed / uint32(unsafe.Sizeof(modules[0])))
	if count > len(modules) {
		count = len(modules)
	}

	nameBuf := make([]uint16, windows.MAX_PATH)
	for _, m := range modules[:count] {
		err := windows.GetModuleBaseName(
			p.handle, m, &nameBuf[0], uint32(len(nameBuf)))
		if err != nil {
			continue
		}

		if strings.EqualFold(windows.UTF16ToString(nameBuf), name) {
			return uint64(m), nil
		}
	}

	return 0, fmt.Errorf("%s: %w", name, ErrModuleNotFound)
}

func (p *windowsProcess) ReadMemory(addr uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return ErrProcessClosed
	}

	var n uintptr

	err := windows.ReadProcessMemory(
		p.handle, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return fmt.Errorf("%w at 0x%x: %v", ErrReadFailed, addr, err)
	}

	if int(n) != len(buf) {
		return fmt.Errorf("%w at 0x%x: short read %d/%d",
			ErrReadFailed, addr, n, len(buf))
	}

	return nil
}

func (p *windowsProcess) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return false
	}

	var code uint32
	if err := windows.GetExitCodeProcess(p.handle, &code); err != nil {
		return false
	}

	return code == stillActive
}

func (p *windowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}

	err := windows.CloseHandle(p.handle)
	p.handle = 0

	return err
}
