// Package timer defines the run timer the splitter drives and ships two
// implementations: a LiveSplit Server client and an in-memory recorder.
package timer

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned when the timer reports a phase this package
// does not know.
var ErrUnknownState = errors.New("unknown timer state")

// State is the phase of the run as reported by the timer.
type State int

// Timer states.
const (
	NotRunning State = iota
	Running
	Paused
	Ended
)

var stateNames = map[State]string{
	NotRunning: "NotRunning",
	Running:    "Running",
	Paused:     "Paused",
	Ended:      "Ended",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState converts the name of a state back to the State.
func ParseState(s string) (State, error) {
	for st, n := range stateNames {
		if n == s {
			return st, nil
		}
	}

	return NotRunning, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// Command is an order sent to the timer.
type Command int

// Timer commands.
const (
	Start Command = iota
	Split
	PauseGameTime
	ResumeGameTime
)

var commandNames = map[Command]string{
	Start:          "Start",
	Split:          "Split",
	PauseGameTime:  "PauseGameTime",
	ResumeGameTime: "ResumeGameTime",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}

	return fmt.Sprintf("Command(%d)", int(c))
}

// A Controller is the control surface of a run timer.
type Controller interface {
	Start() error
	Split() error
	PauseGameTime() error
	ResumeGameTime() error
	State() (State, error)
}

// Issue sends cmd to c.
func Issue(c Controller, cmd Command) error {
	switch cmd {
	case Start:
		return c.Start()
	case Split:
		return c.Split()
	case PauseGameTime:
		return c.PauseGameTime()
	case ResumeGameTime:
		return c.ResumeGameTime()
	default:
		return fmt.Errorf("unknown command %v", cmd)
	}
}
