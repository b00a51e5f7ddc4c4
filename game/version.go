// Package game describes the game versions the splitter knows about: where
// their values live in memory and how those values turn into timer commands.
package game

import (
	"fmt"

	"github.com/sarchlab/autosplit/cell"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/watcher"
)

// A CellSpec is a watcher.Spec plus its location relative to a module.
type CellSpec struct {
	watcher.Spec

	// Module is the module whose base the path starts from.
	Module string

	// Offsets is the pointer path. Every offset but the last is
	// dereferenced.
	Offsets []uint64
}

// StartRule starts the run when the activation cell goes from Inactive to
// Active while the level cell holds a name.
type StartRule struct {
	Cell     string
	Inactive uint64
	Active   uint64
	Level    string
}

// SplitRule splits when the level cell changes to a non-empty name, or when
// the outro cell leaves OutroSentinel. Outro is optional.
type SplitRule struct {
	Level         string
	Outro         string
	OutroSentinel string
}

// A Version is the configuration record of one game version. A single
// generic splitter serves every version; only this record differs.
type Version struct {
	Name            string
	Process         string
	PrimaryModule   string
	DependentModule string
	PointerSize     memory.PointerSize
	Cells           []CellSpec
	StartRule       StartRule
	SplitRule       SplitRule

	// Loading is the text of the isLoading formula, kept as written.
	Loading string

	loading *Formula
}

func (v *Version) cellSpec(name string) (CellSpec, bool) {
	for _, c := range v.Cells {
		if c.Name == name {
			return c, true
		}
	}

	return CellSpec{}, false
}

// WatcherSpecs returns the bank specs of the version.
func (v *Version) WatcherSpecs() []watcher.Spec {
	specs := make([]watcher.Spec, 0, len(v.Cells))
	for _, c := range v.Cells {
		specs = append(specs, c.Spec)
	}

	return specs
}

// NewBank creates an empty watcher bank for a new session.
func (v *Version) NewBank() (*watcher.Bank, error) {
	return watcher.NewBank(v.WatcherSpecs())
}

// Validate checks that the record is consistent and compiles the loading
// formula. It must be called before the predicates are used.
func (v *Version) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("version has no name")
	}

	if v.Process == "" || v.PrimaryModule == "" {
		return fmt.Errorf("version %s: process and primary module are required", v.Name)
	}

	if v.PointerSize != memory.Bit32 && v.PointerSize != memory.Bit64 {
		return fmt.Errorf("version %s: bad pointer size %d", v.Name, v.PointerSize)
	}

	if err := v.validateCells(); err != nil {
		return fmt.Errorf("version %s: %w", v.Name, err)
	}

	if err := v.validateRules(); err != nil {
		return fmt.Errorf("version %s: %w", v.Name, err)
	}

	f, err := ParseFormula(v.Loading)
	if err != nil {
		return fmt.Errorf("version %s: %w", v.Name, err)
	}

	for _, name := range f.Cells() {
		if err := v.requireKind(name, false); err != nil {
			return fmt.Errorf("version %s: loading formula: %w", v.Name, err)
		}
	}

	v.loading = f

	return nil
}

func (v *Version) validateCells() error {
	seen := make(map[string]bool)

	for _, c := range v.Cells {
		if c.Name == "" {
			return fmt.Errorf("cell without name")
		}

		if seen[c.Name] {
			return fmt.Errorf("duplicate cell %q", c.Name)
		}
		seen[c.Name] = true

		if len(c.Offsets) == 0 {
			return fmt.Errorf("cell %q has no offsets", c.Name)
		}

		if c.Module == "" ||
			(c.Module != v.PrimaryModule && c.Module != v.DependentModule) {
			return fmt.Errorf("cell %q: unknown module %q", c.Name, c.Module)
		}

		if c.Kind.IsText() && c.Width <= 0 {
			return fmt.Errorf("cell %q: string width must be positive", c.Name)
		}
	}

	return nil
}

func (v *Version) validateRules() error {
	if err := v.requireKind(v.StartRule.Cell, false); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if v.StartRule.Active == v.StartRule.Inactive {
		return fmt.Errorf("start: active and inactive values are equal")
	}

	if err := v.requireKind(v.StartRule.Level, true); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if err := v.requireKind(v.SplitRule.Level, true); err != nil {
		return fmt.Errorf("split: %w", err)
	}

	if v.SplitRule.Outro != "" {
		if err := v.requireKind(v.SplitRule.Outro, true); err != nil {
			return fmt.Errorf("split: %w", err)
		}
	}

	return nil
}

func (v *Version) requireKind(name string, text bool) error {
	c, ok := v.cellSpec(name)
	if !ok {
		return fmt.Errorf("unknown cell %q", name)
	}

	if c.Kind.IsText() != text {
		if text {
			return fmt.Errorf("cell %q must be a string", name)
		}

		return fmt.Errorf("cell %q must be numeric", name)
	}

	return nil
}

// LoadingFormula returns the compiled loading formula, or nil before
// Validate.
func (v *Version) LoadingFormula() *Formula {
	return v.loading
}

// Start reports whether the run starts on this tick. Like Split, it looks at
// measured values only: a fallback never completes an edge, and a failed read
// between two real values does not hide one.
func (v *Version) Start(b *watcher.Bank) bool {
	act := b.MeasuredUint(v.StartRule.Cell)
	level := b.MeasuredText(v.StartRule.Level)

	if act == nil || level == nil {
		return false
	}

	return act.ChangedFromTo(v.StartRule.Inactive, v.StartRule.Active) &&
		cell.IsNonEmpty(level)
}

// IsLoading reports whether the game is on a loading screen. known is false
// while any cell of the formula has not been observed yet.
func (v *Version) IsLoading(b *watcher.Bank) (loading, known bool) {
	if v.loading == nil {
		return false, false
	}

	return v.loading.Eval(b)
}

// Split reports whether a segment ends on this tick.
func (v *Version) Split(b *watcher.Bank) bool {
	if level := b.MeasuredText(v.SplitRule.Level); level != nil {
		if level.Changed() && cell.IsNonEmpty(level) {
			return true
		}
	}

	if v.SplitRule.Outro == "" {
		return false
	}

	outro := b.MeasuredText(v.SplitRule.Outro)

	return outro != nil && outro.ChangedFrom(v.SplitRule.OutroSentinel)
}
