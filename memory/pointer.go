package memory

import (
	"encoding/binary"
	"fmt"
)

// A Reader can copy bytes out of an address space.
type Reader interface {
	ReadMemory(addr uint64, buf []byte) error
}

// PointerSize is the width of a pointer in the target address space.
type PointerSize int

// Supported pointer sizes.
const (
	Bit32 PointerSize = 4
	Bit64 PointerSize = 8
)

// Bytes returns the number of bytes of a pointer.
func (s PointerSize) Bytes() int {
	return int(s)
}

func (s PointerSize) String() string {
	switch s {
	case Bit32:
		return "32"
	case Bit64:
		return "64"
	default:
		return fmt.Sprintf("PointerSize(%d)", int(s))
	}
}

// ParsePointerSize converts "32" or "64" to a PointerSize.
func ParsePointerSize(s string) (PointerSize, error) {
	switch s {
	case "32", "":
		return Bit32, nil
	case "64":
		return Bit64, nil
	default:
		return 0, fmt.Errorf("unsupported pointer size %q", s)
	}
}

// A PointerPath describes where a value lives: start at Base, and for every
// offset but the last add it to the current address and dereference. The last
// offset is added to produce the address of the value itself. A path with a
// single offset is the plain address Base+Offsets[0].
type PointerPath struct {
	Base    uint64
	Offsets []uint64
}

// Address walks the pointer chain and returns the address of the leaf value.
func (p PointerPath) Address(r Reader, size PointerSize) (uint64, error) {
	if len(p.Offsets) == 0 {
		return p.Base, nil
	}

	addr := p.Base
	for i, offset := range p.Offsets[:len(p.Offsets)-1] {
		ptr, err := ReadPointer(r, addr+offset, size)
		if err != nil {
			return 0, fmt.Errorf("pointer hop %d: %w", i, err)
		}

		addr = ptr
	}

	return addr + p.Offsets[len(p.Offsets)-1], nil
}

func (p PointerPath) String() string {
	s := fmt.Sprintf("0x%x", p.Base)
	for _, o := range p.Offsets {
		s += fmt.Sprintf(" +0x%x", o)
	}

	return s
}

// ReadPointer reads a pointer of the given size at addr.
func ReadPointer(r Reader, addr uint64, size PointerSize) (uint64, error) {
	buf := make([]byte, size.Bytes())
	if err := r.ReadMemory(addr, buf); err != nil {
		return 0, err
	}

	if size == Bit32 {
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	}

	return binary.LittleEndian.Uint64(buf), nil
}

// ReadPointerPath walks the path and fills buf with the leaf value.
func ReadPointerPath(r Reader, path PointerPath, size PointerSize, buf []byte) error {
	addr, err := path.Address(r, size)
	if err != nil {
		return err
	}

	return r.ReadMemory(addr, buf)
}
