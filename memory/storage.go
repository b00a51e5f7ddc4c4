package memory

import (
	"errors"
	"fmt"
)

// ErrUnmapped is returned when a read touches a page that has never been
// written.
var ErrUnmapped = errors.New("address not mapped")

// ErrOutOfRange is returned when an access goes beyond the capacity of the
// storage.
var ErrOutOfRange = errors.New("address beyond the storage capacity")

// A Storage is a sparse byte-addressable address space.
//
// The storage manages the data in pages. A page is allocated by the first
// Write that touches it. Unlike physical memory, reading a page that was
// never written fails with ErrUnmapped, the way reading an unmapped region of
// a live process does.
type Storage struct {
	pageSize uint64
	capacity uint64
	pages    map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	s := new(Storage)

	s.pageSize = 4096
	s.capacity = capacity
	s.pages = make(map[uint64][]byte)

	return s
}

// Capacity returns the highest address the storage can hold plus one.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) split(addr uint64) (pageAddr, inPageAddr uint64) {
	inPageAddr = addr % s.pageSize
	pageAddr = addr - inPageAddr

	return
}

func (s *Storage) checkRange(addr uint64, n int) error {
	end := addr + uint64(n)
	if end < addr || end > s.capacity {
		return fmt.Errorf("%w: 0x%x+%d", ErrOutOfRange, addr, n)
	}

	return nil
}

// ReadMemory fills buf with the bytes starting at addr.
func (s *Storage) ReadMemory(addr uint64, buf []byte) error {
	if err := s.checkRange(addr, len(buf)); err != nil {
		return err
	}

	done := 0
	for done < len(buf) {
		curr := addr + uint64(done)
		pageAddr, inPageAddr := s.split(curr)

		page, ok := s.pages[pageAddr]
		if !ok {
			return fmt.Errorf("%w: 0x%x", ErrUnmapped, curr)
		}

		done += copy(buf[done:], page[inPageAddr:])
	}

	return nil
}

// Write stores data starting at addr, allocating pages as needed.
func (s *Storage) Write(addr uint64, data []byte) error {
	if err := s.checkRange(addr, len(data)); err != nil {
		return err
	}

	done := 0
	for done < len(data) {
		curr := addr + uint64(done)
		pageAddr, inPageAddr := s.split(curr)

		page, ok := s.pages[pageAddr]
		if !ok {
			page = make([]byte, s.pageSize)
			s.pages[pageAddr] = page
		}

		done += copy(page[inPageAddr:], data[done:])
	}

	return nil
}

// Unmap drops the page that contains addr. Later reads of that page fail.
func (s *Storage) Unmap(addr uint64) {
	pageAddr, _ := s.split(addr)
	delete(s.pages, pageAddr)
}
