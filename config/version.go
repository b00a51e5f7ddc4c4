package config

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/watcher"
)

// VersionConfig is a game version record written in the config file.
//
//	versions:
//	  - name: v1.1
//	    process: game.exe
//	    primary_module: game.exe
//	    dependent_module: GameClient.dll
//	    pointer_size: "32"
//	    cells:
//	      - {name: cuts, kind: u8, module: GameClient.dll, offsets: [0x21F060]}
//	    start: {cell: cuts, inactive: 0, active: 1, level: level}
//	    split: {level: level, outro: outro, outro_sentinel: Outro_2}
//	    loading: load == 0 || load2 == 0
type VersionConfig struct {
	Name            string       `mapstructure:"name"`
	Process         string       `mapstructure:"process"`
	PrimaryModule   string       `mapstructure:"primary_module"`
	DependentModule string       `mapstructure:"dependent_module"`
	PointerSize     string       `mapstructure:"pointer_size"`
	Cells           []CellConfig `mapstructure:"cells"`
	Start           StartConfig  `mapstructure:"start"`
	Split           SplitConfig  `mapstructure:"split"`
	Loading         string       `mapstructure:"loading"`
}

// CellConfig is one observed cell of a VersionConfig.
type CellConfig struct {
	Name    string   `mapstructure:"name"`
	Kind    string   `mapstructure:"kind"`
	Width   int      `mapstructure:"width"`
	Module  string   `mapstructure:"module"`
	Offsets []uint64 `mapstructure:"offsets"`

	// Fallback is the value used when the cell cannot be read. It is a
	// number for numeric kinds and text for cstring.
	Fallback string `mapstructure:"fallback"`
}

// StartConfig is the start rule of a VersionConfig.
type StartConfig struct {
	Cell     string `mapstructure:"cell"`
	Inactive uint64 `mapstructure:"inactive"`
	Active   uint64 `mapstructure:"active"`
	Level    string `mapstructure:"level"`
}

// SplitConfig is the split rule of a VersionConfig.
type SplitConfig struct {
	Level         string `mapstructure:"level"`
	Outro         string `mapstructure:"outro"`
	OutroSentinel string `mapstructure:"outro_sentinel"`
}

// Build converts the record into a validated game.Version.
func (vc VersionConfig) Build() (*game.Version, error) {
	size, err := memory.ParsePointerSize(vc.PointerSize)
	if err != nil {
		return nil, err
	}

	primary := vc.PrimaryModule
	if primary == "" {
		primary = vc.Process
	}

	v := &game.Version{
		Name:            vc.Name,
		Process:         vc.Process,
		PrimaryModule:   primary,
		DependentModule: vc.DependentModule,
		PointerSize:     size,
		StartRule: game.StartRule{
			Cell:     vc.Start.Cell,
			Inactive: vc.Start.Inactive,
			Active:   vc.Start.Active,
			Level:    vc.Start.Level,
		},
		SplitRule: game.SplitRule{
			Level:         vc.Split.Level,
			Outro:         vc.Split.Outro,
			OutroSentinel: vc.Split.OutroSentinel,
		},
		Loading: vc.Loading,
	}

	for _, cc := range vc.Cells {
		c, err := cc.build()
		if err != nil {
			return nil, err
		}

		v.Cells = append(v.Cells, c)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (cc CellConfig) build() (game.CellSpec, error) {
	kind, err := memory.ParseKind(cc.Kind)
	if err != nil {
		return game.CellSpec{}, fmt.Errorf("cell %q: %w", cc.Name, err)
	}

	spec := watcher.Spec{Name: cc.Name, Kind: kind, Width: cc.Width}

	switch {
	case kind.IsText():
		spec.FallbackText = cc.Fallback
	case cc.Fallback != "":
		spec.Fallback, err = strconv.ParseUint(cc.Fallback, 0, 64)
		if err != nil {
			return game.CellSpec{}, fmt.Errorf("cell %q: bad fallback: %w", cc.Name, err)
		}
	}

	return game.CellSpec{
		Spec:    spec,
		Module:  cc.Module,
		Offsets: cc.Offsets,
	}, nil
}

// Registry returns the built-in versions plus the ones of c. A configured
// version replaces a built-in one with the same name.
func (c *Config) Registry() (*game.Registry, error) {
	r := game.NewRegistry()

	for _, vc := range c.Versions {
		v, err := vc.Build()
		if err != nil {
			return nil, fmt.Errorf("version %q: %w", vc.Name, err)
		}

		if err := r.Add(v); err != nil {
			return nil, err
		}
	}

	return r, nil
}
