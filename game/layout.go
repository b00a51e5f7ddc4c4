package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/process"
)

// ErrFatalAttach is returned when the primary module of the game cannot be
// found. The process is considered unattachable.
var ErrFatalAttach = errors.New("failed to attach to the game")

// A Layout holds the resolved addresses of one session. It does not change
// after it is built.
type Layout struct {
	modules map[string]uint64
	paths   map[string]memory.PointerPath
	size    memory.PointerSize
}

// NewLayout composes the layout of v from already resolved module bases.
func NewLayout(v *Version, bases map[string]uint64) (*Layout, error) {
	l := &Layout{
		modules: make(map[string]uint64, len(bases)),
		paths:   make(map[string]memory.PointerPath, len(v.Cells)),
		size:    v.PointerSize,
	}

	for name, base := range bases {
		l.modules[name] = base
	}

	for _, c := range v.Cells {
		base, ok := bases[c.Module]
		if !ok {
			return nil, fmt.Errorf("cell %q: module %q is not resolved", c.Name, c.Module)
		}

		l.paths[c.Name] = memory.PointerPath{
			Base:    base,
			Offsets: append([]uint64(nil), c.Offsets...),
		}
	}

	return l, nil
}

// Path returns the pointer path of a cell.
func (l *Layout) Path(name string) (memory.PointerPath, bool) {
	p, ok := l.paths[name]

	return p, ok
}

// Module returns the base address of a module.
func (l *Layout) Module(name string) (uint64, bool) {
	base, ok := l.modules[name]

	return base, ok
}

// Modules returns a copy of the resolved module bases.
func (l *Layout) Modules() map[string]uint64 {
	m := make(map[string]uint64, len(l.modules))
	for k, v := range l.modules {
		m[k] = v
	}

	return m
}

// PointerSize returns the pointer width of the game.
func (l *Layout) PointerSize() memory.PointerSize {
	return l.size
}

// Resolve finds the module bases of v in p and builds the layout. A missing
// primary module is fatal. The dependent module may load later than the
// primary one, so its lookup is retried every retry interval until it shows
// up, the process exits, or ctx is done.
func Resolve(
	ctx context.Context,
	p process.Process,
	v *Version,
	retry time.Duration,
) (*Layout, error) {
	primary, err := p.ModuleAddress(v.PrimaryModule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatalAttach, err)
	}

	bases := map[string]uint64{v.PrimaryModule: primary}

	if v.DependentModule != "" && v.DependentModule != v.PrimaryModule {
		dep, err := waitModule(ctx, p, v.DependentModule, retry)
		if err != nil {
			return nil, err
		}

		bases[v.DependentModule] = dep
	}

	return NewLayout(v, bases)
}

func waitModule(
	ctx context.Context,
	p process.Process,
	name string,
	retry time.Duration,
) (uint64, error) {
	if retry <= 0 {
		retry = 500 * time.Millisecond
	}

	for {
		base, err := p.ModuleAddress(name)
		if err == nil {
			return base, nil
		}

		if !p.IsOpen() {
			return 0, fmt.Errorf("waiting for %s: %w", name, process.ErrProcessClosed)
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(retry):
		}
	}
}
