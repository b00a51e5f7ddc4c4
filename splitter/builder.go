package splitter

import (
	"errors"
	"slices"
	"time"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/timer"
)

// Builder can build splitters.
type Builder struct {
	version   *game.Version
	attacher  process.Attacher
	timer     timer.Controller
	settings  SettingsSource
	retry     time.Duration
	newTicker TickerFactory
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with default parameters. A version and a
// timer must be given before calling Build.
func MakeBuilder() Builder {
	return Builder{
		settings:  StaticSettings{},
		retry:     500 * time.Millisecond,
		newTicker: NewRealTicker,
	}
}

// WithVersion sets the game version to watch.
func (b Builder) WithVersion(v *game.Version) Builder {
	b.version = v
	return b
}

// WithAttacher sets how the game process is found. Defaults to polling the
// process list once a second.
func (b Builder) WithAttacher(a process.Attacher) Builder {
	b.attacher = a
	return b
}

// WithTimer sets the timer the commands are sent to.
func (b Builder) WithTimer(t timer.Controller) Builder {
	b.timer = t
	return b
}

// WithSettings sets the source of the per-tick settings.
func (b Builder) WithSettings(s SettingsSource) Builder {
	b.settings = s
	return b
}

// WithRetryInterval sets how long to wait between two lookups of the
// dependent module, and after a failed attach.
func (b Builder) WithRetryInterval(d time.Duration) Builder {
	b.retry = d
	return b
}

// WithTickerFactory replaces the wall clock ticker.
func (b Builder) WithTickerFactory(f TickerFactory) Builder {
	b.newTicker = f
	return b
}

// WithHook registers a hook on the splitter being built.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(slices.Clone(b.hooks), h)
	return b
}

// Build creates the splitter.
func (b Builder) Build() (*Splitter, error) {
	if b.version == nil {
		return nil, errors.New("splitter: version is required")
	}

	if b.timer == nil {
		return nil, errors.New("splitter: timer is required")
	}

	if err := b.version.Validate(); err != nil {
		return nil, err
	}

	attacher := b.attacher
	if attacher == nil {
		attacher = process.NewPollingAttacher(time.Second)
	}

	retry := b.retry
	if retry <= 0 {
		retry = 500 * time.Millisecond
	}

	s := &Splitter{
		HookableBase: hooking.NewHookableBase(),
		version:      b.version,
		attacher:     attacher,
		timer:        b.timer,
		settings:     b.settings,
		retry:        retry,
		newTicker:    b.newTicker,
	}

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	return s, nil
}
