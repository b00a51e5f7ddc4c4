// Package cell provides the observed cell, a previous/current pair of a
// single memory-derived value that is refreshed once per tick.
package cell

// A Pair is the previous and the current value of an observed cell.
type Pair[T comparable] struct {
	Old     T
	Current T
}

// Changed returns true if the value differs from the previous tick.
func (p Pair[T]) Changed() bool {
	return p.Old != p.Current
}

// ChangedFrom returns true if the value changed away from old this tick.
func (p Pair[T]) ChangedFrom(old T) bool {
	return p.Old == old && p.Current != old
}

// ChangedTo returns true if the value changed to current this tick.
func (p Pair[T]) ChangedTo(current T) bool {
	return p.Old != current && p.Current == current
}

// ChangedFromTo returns true if the value changed from old to current this
// tick.
func (p Pair[T]) ChangedFromTo(old, current T) bool {
	return p.Old == old && p.Current == current && old != current
}

// A Cell holds a Pair once it has been observed. A Cell that has never been
// updated is uninitialized and carries no value at all.
type Cell[T comparable] struct {
	pair     Pair[T]
	observed bool
}

// Update records a new value. The first update sets both Old and Current to
// v, so the initial observation never reports a change.
func (c *Cell[T]) Update(v T) {
	if !c.observed {
		c.pair = Pair[T]{Old: v, Current: v}
		c.observed = true

		return
	}

	c.pair.Old = c.pair.Current
	c.pair.Current = v
}

// Pair returns the observed pair. The boolean is false if the cell is
// uninitialized.
func (c *Cell[T]) Pair() (Pair[T], bool) {
	return c.pair, c.observed
}

// Observed returns true if the cell has been updated at least once.
func (c *Cell[T]) Observed() bool {
	return c.observed
}

// Is returns true if the cell is observed and pred holds for its pair. It is
// the building block of every predicate: an uninitialized cell never
// satisfies anything.
func (c *Cell[T]) Is(pred func(Pair[T]) bool) bool {
	if !c.observed {
		return false
	}

	return pred(c.pair)
}

// Changed is Is(Pair.Changed).
func (c *Cell[T]) Changed() bool {
	return c.observed && c.pair.Changed()
}

// ChangedFrom is Is(Pair.ChangedFrom).
func (c *Cell[T]) ChangedFrom(old T) bool {
	return c.observed && c.pair.ChangedFrom(old)
}

// ChangedFromTo is Is(Pair.ChangedFromTo).
func (c *Cell[T]) ChangedFromTo(old, current T) bool {
	return c.observed && c.pair.ChangedFromTo(old, current)
}

// ChangedTo is Is(Pair.ChangedTo).
func (c *Cell[T]) ChangedTo(current T) bool {
	return c.observed && c.pair.ChangedTo(current)
}
