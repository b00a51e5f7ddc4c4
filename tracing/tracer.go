// Package tracing records what the splitter did, one row per state change and
// timer command, so a run can be inspected afterwards.
package tracing

import (
	"fmt"
	"time"

	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/splitter"
)

// Event kinds.
const (
	KindState      = "state"
	KindCommand    = "command"
	KindTimerError = "timer_error"
)

// An Event is one row of a trace.
type Event struct {
	SessionID string
	Tick      uint64
	Kind      string
	What      string

	// State is the machine state for state changes and the outcome for
	// commands ("ok" or the error text).
	State string
	Time  time.Time
}

// A TraceWriter stores events.
type TraceWriter interface {
	Init() error
	Write(e Event)
	Flush() error
}

// A Tracer is a splitter hook that turns what it sees into events.
type Tracer struct {
	writer TraceWriter
	now    func() time.Time
}

// NewTracer creates a tracer that writes into w. w must be initialized.
func NewTracer(w TraceWriter) *Tracer {
	return &Tracer{writer: w, now: time.Now}
}

// Func records one hook invocation.
func (t *Tracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case splitter.HookPosStateChange:
		tr, ok := hooking.ItemAs[splitter.Transition](ctx)
		if !ok {
			return
		}

		e := Event{
			SessionID: tr.SessionID,
			Kind:      KindState,
			What:      tr.From.String() + "->" + tr.To.String(),
			State:     tr.To.String(),
			Time:      t.now(),
		}
		if tr.Err != nil {
			e.State = tr.Err.Error()
		}
		t.writer.Write(e)
	case splitter.HookPosCommand:
		ce, ok := hooking.ItemAs[splitter.CommandEvent](ctx)
		if !ok || ce.Repeat {
			return
		}

		e := Event{
			SessionID: ce.SessionID,
			Tick:      ce.Tick,
			Kind:      KindCommand,
			What:      ce.Command.String(),
			State:     "ok",
			Time:      t.now(),
		}
		if ce.Err != nil {
			e.State = ce.Err.Error()
		}
		t.writer.Write(e)
	case splitter.HookPosTimerError:
		err, ok := hooking.ItemAs[error](ctx)
		if !ok {
			return
		}

		t.writer.Write(Event{
			Kind:  KindTimerError,
			What:  "state",
			State: err.Error(),
			Time:  t.now(),
		})
	}
}

// Positions lists the hook positions a tracer records. Register the tracer
// with hooking.OnlyAt(t, t.Positions()...) to keep it off the per-tick ones.
func (t *Tracer) Positions() []*hooking.HookPos {
	return []*hooking.HookPos{
		splitter.HookPosStateChange,
		splitter.HookPosCommand,
		splitter.HookPosTimerError,
	}
}

// NewTraceWriter creates an uninitialized writer for format "sqlite" or
// "csv".
func NewTraceWriter(format, path string) (TraceWriter, error) {
	switch format {
	case "", "sqlite":
		return NewSQLiteTraceWriter(path), nil
	case "csv":
		return NewCSVTraceWriter(path), nil
	default:
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
}
