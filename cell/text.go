package cell

import "strings"

// IsEmpty returns true if the current text is empty. Uninitialized cells are
// not empty, they are unknown, so IsEmpty returns false for them as well.
func IsEmpty(c *Cell[string]) bool {
	return c.Is(func(p Pair[string]) bool { return p.Current == "" })
}

// IsNonEmpty returns true if the cell is observed and its current text is not
// empty.
func IsNonEmpty(c *Cell[string]) bool {
	return c.Is(func(p Pair[string]) bool { return p.Current != "" })
}

// HasPrefix returns true if the current text starts with prefix.
func HasPrefix(c *Cell[string], prefix string) bool {
	return c.Is(func(p Pair[string]) bool {
		return strings.HasPrefix(p.Current, prefix)
	})
}
