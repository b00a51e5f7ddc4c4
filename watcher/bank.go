// Package watcher keeps the bank of observed cells of one game session.
package watcher

import (
	"fmt"

	"github.com/sarchlab/autosplit/cell"
	"github.com/sarchlab/autosplit/memory"
)

// A Spec describes one observed quantity: how to decode it and what to
// substitute when it cannot be read.
type Spec struct {
	Name string
	Kind memory.Kind

	// Width is the capacity of a fixed-size string. Numeric kinds ignore it.
	Width int

	// Fallback replaces a failed numeric read.
	Fallback uint64

	// FallbackText replaces a failed string read.
	FallbackText string
}

// Size returns the number of bytes read for the cell.
func (s Spec) Size() int {
	return s.Kind.Size(s.Width)
}

// A Locator knows where every cell lives in the address space.
type Locator interface {
	Path(name string) (memory.PointerPath, bool)
	PointerSize() memory.PointerSize
}

// An entry keeps two cells per quantity. The value cell takes every update,
// fallbacks included. The measured cell only takes values read from memory.
type entry struct {
	spec Spec
	num  *cell.Cell[uint64]
	text *cell.Cell[string]
	buf  []byte

	measuredNum  *cell.Cell[uint64]
	measuredText *cell.Cell[string]
	failed       bool
}

func (e *entry) observed() bool {
	if e.num != nil {
		return e.num.Observed()
	}

	return e.text.Observed()
}

func (e *entry) updateUint(v uint64, measured bool) {
	e.failed = !measured
	e.num.Update(v)

	if measured {
		e.measuredNum.Update(v)
	}
}

func (e *entry) updateText(v string, measured bool) {
	e.failed = !measured
	e.text.Update(v)

	if measured {
		e.measuredText.Update(v)
	}
}

// A Bank is the fixed set of observed cells of a session.
type Bank struct {
	entries []*entry
	byName  map[string]*entry
}

// NewBank creates a bank with one uninitialized cell per spec.
func NewBank(specs []Spec) (*Bank, error) {
	b := &Bank{byName: make(map[string]*entry, len(specs))}

	for _, s := range specs {
		if _, dup := b.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate cell %q", s.Name)
		}

		if s.Size() <= 0 {
			return nil, fmt.Errorf("cell %q has no width", s.Name)
		}

		e := &entry{spec: s, buf: make([]byte, s.Size())}
		if s.Kind.IsText() {
			e.text = new(cell.Cell[string])
			e.measuredText = new(cell.Cell[string])
		} else {
			e.num = new(cell.Cell[uint64])
			e.measuredNum = new(cell.Cell[uint64])
		}

		b.entries = append(b.entries, e)
		b.byName[s.Name] = e
	}

	return b, nil
}

// Uint returns the numeric cell with the given name, or nil.
func (b *Bank) Uint(name string) *cell.Cell[uint64] {
	e, ok := b.byName[name]
	if !ok {
		return nil
	}

	return e.num
}

// Text returns the string cell with the given name, or nil.
func (b *Bank) Text(name string) *cell.Cell[string] {
	e, ok := b.byName[name]
	if !ok {
		return nil
	}

	return e.text
}

// Observed returns true if the named cell exists and has been updated.
func (b *Bank) Observed(name string) bool {
	e, ok := b.byName[name]
	if !ok {
		return false
	}

	return e.observed()
}

// MeasuredUint returns the numeric cell of the values actually read for
// name. Fallbacks never enter it: after failed reads, its Old is the last
// value read before them. It returns nil while the latest read failed, so
// edges are only ever seen between two real reads.
func (b *Bank) MeasuredUint(name string) *cell.Cell[uint64] {
	e, ok := b.byName[name]
	if !ok || e.failed {
		return nil
	}

	return e.measuredNum
}

// MeasuredText is MeasuredUint for string cells.
func (b *Bank) MeasuredText(name string) *cell.Cell[string] {
	e, ok := b.byName[name]
	if !ok || e.failed {
		return nil
	}

	return e.measuredText
}

// UpdateUint records a numeric value read for the named cell.
func (b *Bank) UpdateUint(name string, v uint64) {
	if e, ok := b.byName[name]; ok && e.num != nil {
		e.updateUint(v, true)
	}
}

// UpdateText records a string value read for the named cell.
func (b *Bank) UpdateText(name string, v string) {
	if e, ok := b.byName[name]; ok && e.text != nil {
		e.updateText(v, true)
	}
}

// RefreshResult tells how a refresh went.
type RefreshResult struct {
	// Failed lists the cells whose read failed and got their fallback.
	Failed []string
}

// Refresh reads every cell from r. A cell that cannot be read, or that the
// locator does not know, is updated with its fallback value.
func (b *Bank) Refresh(r memory.Reader, loc Locator) RefreshResult {
	var res RefreshResult

	for _, e := range b.entries {
		ok := b.read(r, loc, e)
		if !ok {
			res.Failed = append(res.Failed, e.spec.Name)
		}

		switch {
		case e.num != nil && ok:
			e.updateUint(memory.DecodeUint(e.spec.Kind, e.buf), true)
		case e.num != nil:
			e.updateUint(e.spec.Fallback, false)
		case ok:
			e.updateText(memory.DecodeCString(e.buf), true)
		default:
			e.updateText(e.spec.FallbackText, false)
		}
	}

	return res
}

func (b *Bank) read(r memory.Reader, loc Locator, e *entry) bool {
	path, ok := loc.Path(e.spec.Name)
	if !ok {
		return false
	}

	err := memory.ReadPointerPath(r, path, loc.PointerSize(), e.buf)

	return err == nil
}

// A Value is a copy of one cell, detached from the bank.
type Value struct {
	Name     string `json:"name"`
	Observed bool   `json:"observed"`
	Failed   bool   `json:"failed"`
	Old      any    `json:"old,omitempty"`
	Current  any    `json:"current,omitempty"`
}

// Values copies every cell in declaration order.
func (b *Bank) Values() []Value {
	values := make([]Value, 0, len(b.entries))

	for _, e := range b.entries {
		v := Value{Name: e.spec.Name, Failed: e.failed}

		if e.num != nil {
			if p, ok := e.num.Pair(); ok {
				v.Observed, v.Old, v.Current = true, p.Old, p.Current
			}
		} else if p, ok := e.text.Pair(); ok {
			v.Observed, v.Old, v.Current = true, p.Old, p.Current
		}

		values = append(values, v)
	}

	return values
}
