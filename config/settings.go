package config

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/sarchlab/autosplit/splitter"
)

// LiveSettings holds the settings that may change while the splitter runs.
// It is read by the poll loop on every tick and written by the config
// watcher.
type LiveSettings struct {
	slowPCMode atomic.Bool
}

// NewLiveSettings creates live settings initialized from c.
func NewLiveSettings(c *Config) *LiveSettings {
	s := &LiveSettings{}
	s.Apply(c)

	return s
}

// Apply copies the live part of c.
func (s *LiveSettings) Apply(c *Config) {
	s.slowPCMode.Store(c.SlowPCMode)
}

// Settings returns the current settings.
func (s *LiveSettings) Settings() splitter.Settings {
	return splitter.Settings{SlowPCMode: s.slowPCMode.Load()}
}

// Watch reloads the config file of v when it changes and applies it to s.
// Invalid edits are reported through onError and leave s untouched.
func Watch(v *viper.Viper, s *LiveSettings, onError func(error)) {
	v.OnConfigChange(func(fsnotify.Event) {
		c, err := Load(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}

			return
		}

		s.Apply(c)
	})

	v.WatchConfig()
}
