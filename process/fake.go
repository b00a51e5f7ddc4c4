package process

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sarchlab/autosplit/memory"
)

const (
	fakeHeapBase   = 0x70000000
	fakeRegionSize = 0x10000
)

// A Fake is an in-memory process. Its address space is a memory.Storage, its
// modules are set by hand, and reads at chosen addresses can be made to fail.
// It backs scenario simulation and tests.
type Fake struct {
	mu      sync.Mutex
	pid     int32
	storage *memory.Storage
	modules map[string]uint64
	failing map[uint64]bool
	open    bool
	heap    uint64
}

// NewFake creates an open fake process with a 32-bit address space.
func NewFake(pid int32) *Fake {
	return &Fake{
		pid:     pid,
		storage: memory.NewStorage(1 << 32),
		modules: make(map[string]uint64),
		failing: make(map[uint64]bool),
		open:    true,
		heap:    fakeHeapBase,
	}
}

// PID returns the fake pid.
func (f *Fake) PID() int32 {
	return f.pid
}

// AddModule makes a module visible at base.
func (f *Fake) AddModule(name string, base uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.modules[strings.ToLower(name)] = base
}

// ModuleAddress returns the base of a module added with AddModule.
func (f *Fake) ModuleAddress(name string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return 0, ErrProcessClosed
	}

	base, ok := f.modules[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrModuleNotFound)
	}

	return base, nil
}

// FailReads makes reads that start at addr fail, or succeed again.
func (f *Fake) FailReads(addr uint64, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if fail {
		f.failing[addr] = true
	} else {
		delete(f.failing, addr)
	}
}

// ClearFailures makes all reads succeed again.
func (f *Fake) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failing = make(map[uint64]bool)
}

// ReadMemory reads from the fake address space.
func (f *Fake) ReadMemory(addr uint64, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return ErrProcessClosed
	}

	if f.failing[addr] {
		return fmt.Errorf("%w at 0x%x", ErrReadFailed, addr)
	}

	return f.storage.ReadMemory(addr, buf)
}

// Write stores data in the fake address space.
func (f *Fake) Write(addr uint64, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.storage.Write(addr, data)
}

// Materialize makes every hop of path point somewhere, allocating zeroed
// regions for hops that do not point anywhere yet, and returns the address of
// the leaf value.
func (f *Fake) Materialize(
	path memory.PointerPath,
	size memory.PointerSize,
) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(path.Offsets) == 0 {
		return path.Base, nil
	}

	addr := path.Base
	for _, offset := range path.Offsets[:len(path.Offsets)-1] {
		slot := addr + offset

		ptr, err := memory.ReadPointer(f.storage, slot, size)
		if err != nil || ptr == 0 {
			ptr = f.allocate()

			buf := make([]byte, size.Bytes())
			copy(buf, memory.EncodeUint(memory.KindU64, ptr))

			if err := f.storage.Write(slot, buf); err != nil {
				return 0, err
			}
		}

		addr = ptr
	}

	return addr + path.Offsets[len(path.Offsets)-1], nil
}

func (f *Fake) allocate() uint64 {
	region := f.heap
	f.heap += fakeRegionSize

	// Touch the region so reads of untouched leaves see zeros.
	_ = f.storage.Write(region, make([]byte, fakeRegionSize))

	return region
}

// Exit makes the process report that it has exited.
func (f *Fake) Exit() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.open = false
}

// IsOpen returns false after Exit or Close.
func (f *Fake) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.open
}

// Close closes the fake.
func (f *Fake) Close() error {
	f.Exit()

	return nil
}

// A FakeAttacher hands out queued processes in order. Once the queue is
// empty Attach blocks until the context is done.
type FakeAttacher struct {
	mu    sync.Mutex
	queue []Process
	names []string
}

// Push queues a process for a later Attach.
func (a *FakeAttacher) Push(p Process) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.queue = append(a.queue, p)
}

// Names returns the process names Attach has been called with.
func (a *FakeAttacher) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.names...)
}

// Attach pops the next queued process.
func (a *FakeAttacher) Attach(ctx context.Context, name string) (Process, error) {
	a.mu.Lock()
	a.names = append(a.names, name)

	if len(a.queue) > 0 {
		p := a.queue[0]
		a.queue = a.queue[1:]
		a.mu.Unlock()

		return p, nil
	}
	a.mu.Unlock()

	<-ctx.Done()

	return nil, ctx.Err()
}
