package splitter

import (
	"time"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/timer"
	"github.com/sarchlab/autosplit/watcher"
)

// A Session is one attachment to a game process. It owns the bank and the
// layout; both are dropped with the session.
type Session struct {
	id       string
	splitter *Splitter
	proc     process.Process
	layout   *game.Layout
	bank     *watcher.Bank

	tick     uint64
	rate     Freq
	recent   []string
	gameTime timer.Command
	hasGame  bool
}

// ID returns the session id.
func (ss *Session) ID() string {
	return ss.id
}

// Process returns the attached process.
func (ss *Session) Process() process.Process {
	return ss.proc
}

// Layout returns the resolved memory layout.
func (ss *Session) Layout() *game.Layout {
	return ss.layout
}

// Bank returns the watcher bank. Only the goroutine driving the session may
// use it.
func (ss *Session) Bank() *watcher.Bank {
	return ss.bank
}

// Ticks returns the number of completed ticks.
func (ss *Session) Ticks() uint64 {
	return ss.tick
}

// Rate returns the tick rate chosen by the last Step.
func (ss *Session) Rate() Freq {
	return ss.rate
}

// Close releases the process.
func (ss *Session) Close() error {
	return ss.proc.Close()
}

// Step runs one tick: read settings, evaluate the predicates against the
// values of the previous refresh, issue commands, then refresh the bank. It
// returns the commands it issued.
func (ss *Session) Step() []timer.Command {
	s := ss.splitter
	ss.tick++

	rate := s.settings.Settings().Rate()
	if rate != ss.rate {
		if ss.rate != 0 {
			s.InvokeHook(hooking.HookCtx{Domain: s, Pos: HookPosCadence, Item: rate})
		}
		ss.rate = rate
	}

	var issued []timer.Command

	state, err := s.timer.State()
	if err != nil {
		s.InvokeHook(hooking.HookCtx{Domain: s, Pos: HookPosTimerError, Item: err})
	} else {
		issued = ss.evaluate(state)
	}

	res := ss.bank.Refresh(ss.proc, ss.layout)
	s.InvokeHook(hooking.HookCtx{Domain: s, Pos: HookPosRefresh, Item: res})

	timerState := ""
	if err == nil {
		timerState = state.String()
	}

	ss.publish(timerState)

	return issued
}

func (ss *Session) evaluate(state timer.State) []timer.Command {
	v := ss.splitter.version

	var cmds []timer.Command

	if state == timer.Running || state == timer.Paused {
		if loading, known := v.IsLoading(ss.bank); known {
			if loading {
				cmds = append(cmds, ss.issue(timer.PauseGameTime))
			} else {
				cmds = append(cmds, ss.issue(timer.ResumeGameTime))
			}
		}

		if v.Split(ss.bank) {
			cmds = append(cmds, ss.issue(timer.Split))
		}
	}

	if state == timer.NotRunning && v.Start(ss.bank) {
		cmds = append(cmds, ss.issue(timer.Start))
	}

	return cmds
}

func (ss *Session) issue(cmd timer.Command) timer.Command {
	s := ss.splitter
	err := timer.Issue(s.timer, cmd)

	repeat := false
	if cmd == timer.PauseGameTime || cmd == timer.ResumeGameTime {
		repeat = ss.hasGame && ss.gameTime == cmd && err == nil
		ss.gameTime, ss.hasGame = cmd, err == nil
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosCommand,
		Item: CommandEvent{
			SessionID: ss.id,
			Tick:      ss.tick,
			Command:   cmd,
			Repeat:    repeat,
			Err:       err,
		},
	})

	if !repeat {
		ss.recent = append(ss.recent, cmd.String())
		if len(ss.recent) > maxRecentCommands {
			ss.recent = ss.recent[len(ss.recent)-maxRecentCommands:]
		}
	}

	return cmd
}

func (ss *Session) publish(timerState string) {
	ss.splitter.publish(Snapshot{
		SessionID:    ss.id,
		State:        ss.splitter.state.String(),
		Version:      ss.splitter.version.Name,
		PID:          ss.proc.PID(),
		Modules:      ss.layout.Modules(),
		Tick:         ss.tick,
		Rate:         float64(ss.rate),
		TimerState:   timerState,
		LastCommands: append([]string(nil), ss.recent...),
		Cells:        ss.bank.Values(),
		Time:         time.Now(),
	})
}
