package timer

import "sync"

// A Recorder is an in-memory timer. It follows the phase changes a real
// timer would make and remembers every command it received.
type Recorder struct {
	mu         sync.Mutex
	state      State
	gamePaused bool
	splits     int
	segments   int
	commands   []Command
}

// NewRecorder creates a recorder. With segments > 0 the run ends on that
// split, the way LiveSplit ends a run on its last split.
func NewRecorder(segments int) *Recorder {
	return &Recorder{segments: segments}
}

func (r *Recorder) record(cmd Command) {
	r.commands = append(r.commands, cmd)
}

// Start starts the run if it is not running.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(Start)

	if r.state == NotRunning {
		r.state = Running
		r.splits = 0
		r.gamePaused = false
	}

	return nil
}

// Split ends the current segment.
func (r *Recorder) Split() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(Split)

	if r.state != Running {
		return nil
	}

	r.splits++
	if r.segments > 0 && r.splits >= r.segments {
		r.state = Ended
	}

	return nil
}

// PauseGameTime freezes game time.
func (r *Recorder) PauseGameTime() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(PauseGameTime)
	r.gamePaused = true

	return nil
}

// ResumeGameTime lets game time run again.
func (r *Recorder) ResumeGameTime() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(ResumeGameTime)
	r.gamePaused = false

	return nil
}

// State returns the current phase.
func (r *Recorder) State() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state, nil
}

// SetState forces the phase, as a runner pressing buttons on the timer would.
func (r *Recorder) SetState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = s
}

// Reset returns the timer to NotRunning.
func (r *Recorder) Reset() {
	r.SetState(NotRunning)
}

// GameTimePaused returns true while game time is frozen.
func (r *Recorder) GameTimePaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.gamePaused
}

// Splits returns the number of splits of the current run.
func (r *Recorder) Splits() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.splits
}

// Commands returns every command received so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Command(nil), r.commands...)
}
