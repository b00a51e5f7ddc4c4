package splitter

import (
	"time"

	"github.com/sarchlab/autosplit/watcher"
)

// A Snapshot is a copy of the splitter state taken after a tick or a state
// change. It shares nothing with the live session.
type Snapshot struct {
	SessionID    string            `json:"session_id"`
	State        string            `json:"state"`
	Version      string            `json:"version"`
	PID          int32             `json:"pid"`
	Modules      map[string]uint64 `json:"modules,omitempty"`
	Tick         uint64            `json:"tick"`
	Rate         float64           `json:"rate"`
	TimerState   string            `json:"timer_state"`
	LastCommands []string          `json:"last_commands"`
	Cells        []watcher.Value   `json:"cells"`
	Time         time.Time         `json:"time"`
}

const maxRecentCommands = 16
