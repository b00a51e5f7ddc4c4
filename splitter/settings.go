package splitter

// Settings are the user options read at the start of every tick.
type Settings struct {
	// SlowPCMode halves the tick rate for machines that cannot keep up.
	SlowPCMode bool
}

// Rate returns the tick rate the settings select.
func (s Settings) Rate() Freq {
	if s.SlowPCMode {
		return SlowRate
	}

	return NormalRate
}

// A SettingsSource provides the current settings. It is read once per tick,
// so changes apply on the next tick without restarting the loop.
type SettingsSource interface {
	Settings() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

// Settings returns s.
func (s StaticSettings) Settings() Settings {
	return Settings(s)
}
