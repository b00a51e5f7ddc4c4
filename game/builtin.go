package game

import (
	"fmt"
	"sort"

	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/watcher"
)

const (
	exeModule    = "game.exe"
	clientModule = "GameClient.dll"
)

// V10 returns the record of game version 1.0.
//
// The loading bytes fall back to 0, the value that reads as loading, so a
// broken pointer chain pauses game time instead of letting it run.
func V10() *Version {
	v := &Version{
		Name:            "v1.0",
		Process:         exeModule,
		PrimaryModule:   exeModule,
		DependentModule: clientModule,
		PointerSize:     memory.Bit32,
		Cells: []CellSpec{
			{
				Spec:    watcher.Spec{Name: "cuts", Kind: memory.KindU8},
				Module:  clientModule,
				Offsets: []uint64{0x21F050},
			},
			{
				Spec:    watcher.Spec{Name: "load", Kind: memory.KindU8},
				Module:  exeModule,
				Offsets: []uint64{0x1B9BF8},
			},
			{
				Spec:    watcher.Spec{Name: "load2", Kind: memory.KindU8},
				Module:  exeModule,
				Offsets: []uint64{0x1CBD98, 0x4, 0x50, 0x50, 0x6C, 0x4},
			},
			{
				Spec: watcher.Spec{
					Name: "level", Kind: memory.KindCString, Width: 2,
				},
				Module:  exeModule,
				Offsets: []uint64{0x1C5159},
			},
			{
				Spec: watcher.Spec{
					Name: "outro", Kind: memory.KindCString, Width: 7,
				},
				Module:  clientModule,
				Offsets: []uint64{0x220B10, 0x4, 0x4, 0x7},
			},
		},
		StartRule: StartRule{Cell: "cuts", Inactive: 0, Active: 1, Level: "level"},
		SplitRule: SplitRule{
			Level:         "level",
			Outro:         "outro",
			OutroSentinel: "Outro_2",
		},
		Loading: "load == 0 || load2 == 0",
	}

	if err := v.Validate(); err != nil {
		panic(err)
	}

	return v
}

// A Registry maps version names to validated records.
type Registry struct {
	versions map[string]*Version
}

// NewRegistry creates a registry holding the built-in versions.
func NewRegistry() *Registry {
	r := &Registry{versions: make(map[string]*Version)}
	r.versions["v1.0"] = V10()

	return r
}

// Add validates v and registers it, replacing a version with the same name.
func (r *Registry) Add(v *Version) error {
	if err := v.Validate(); err != nil {
		return err
	}

	r.versions[v.Name] = v

	return nil
}

// Lookup returns the version with the given name.
func (r *Registry) Lookup(name string) (*Version, error) {
	v, ok := r.versions[name]
	if !ok {
		return nil, fmt.Errorf("unknown game version %q", name)
	}

	return v, nil
}

// Names returns the registered version names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.versions))
	for n := range r.versions {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
