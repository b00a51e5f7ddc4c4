package splitter

import (
	"fmt"

	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/timer"
)

// State is the state of the session state machine.
type State int

// States of the session state machine.
const (
	Disconnected State = iota
	Attaching
	ResolvingLayout
	Running
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Attaching:
		return "Attaching"
	case ResolvingLayout:
		return "ResolvingLayout"
	case Running:
		return "Running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Hook positions raised by the splitter.
var (
	// HookPosStateChange fires on every state transition. Item is a
	// Transition.
	HookPosStateChange = &hooking.HookPos{Name: "StateChange"}

	// HookPosCommand fires after a command is sent to the timer. Item is a
	// CommandEvent.
	HookPosCommand = &hooking.HookPos{Name: "Command"}

	// HookPosTimerError fires when the timer state cannot be read. Item is
	// the error.
	HookPosTimerError = &hooking.HookPos{Name: "TimerError"}

	// HookPosRefresh fires after the bank is refreshed. Item is a
	// watcher.RefreshResult.
	HookPosRefresh = &hooking.HookPos{Name: "Refresh"}

	// HookPosCadence fires when the tick rate changes. Item is the new Freq.
	HookPosCadence = &hooking.HookPos{Name: "Cadence"}
)

// A Transition is a change of state.
type Transition struct {
	From      State
	To        State
	SessionID string

	// Err is why the machine left the state, if it left because of an error.
	Err error
}

// A CommandEvent is a command sent to the timer.
type CommandEvent struct {
	SessionID string
	Tick      uint64
	Command   timer.Command

	// Repeat is true for a pause or resume that restates the previous one.
	// Game time commands are sent on every tick the loading state is known.
	Repeat bool

	// Err is the error returned by the timer, if any.
	Err error
}
