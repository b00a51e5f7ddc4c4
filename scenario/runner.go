package scenario

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/splitter"
	"github.com/sarchlab/autosplit/timer"
)

// A TickResult is what one splitter tick did.
type TickResult struct {
	// Index is the position of the tick in the scenario. Repeated ticks
	// share it.
	Index    int
	Timer    timer.State
	Commands []timer.Command
}

// A Result is the outcome of a scenario.
type Result struct {
	Ticks  []TickResult
	Timer  *timer.Recorder
	Exited bool

	// Mismatches describes the ticks whose commands differ from what the
	// scenario expects.
	Mismatches []string
}

// Commands returns every command issued, in order.
func (r *Result) Commands() []timer.Command {
	var all []timer.Command
	for _, t := range r.Ticks {
		all = append(all, t.Commands...)
	}

	return all
}

// A Runner plays scenarios.
type Runner struct {
	registry *game.Registry
	hooks    []hooking.Hook
}

// NewRunner creates a runner that looks versions up in registry.
func NewRunner(registry *game.Registry) *Runner {
	return &Runner{registry: registry}
}

// AcceptHook registers a hook on the splitters the runner builds.
func (r *Runner) AcceptHook(h hooking.Hook) {
	r.hooks = append(r.hooks, h)
}

type session struct {
	version *game.Version
	fake    *process.Fake
	sess    *splitter.Session
}

// Run plays s from start to end. Nothing waits on the clock: each scenario
// tick is one splitter tick.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	v, err := r.registry.Lookup(s.Version)
	if err != nil {
		return nil, err
	}

	if v.DependentModule != "" {
		if _, ok := s.Modules[v.DependentModule]; !ok {
			return nil, fmt.Errorf("scenario: module %s is not mapped", v.DependentModule)
		}
	}

	fake := process.NewFake(s.PID)
	for name, base := range s.Modules {
		fake.AddModule(name, base)
	}

	attacher := &process.FakeAttacher{}
	attacher.Push(fake)

	rec := timer.NewRecorder(s.Segments)

	b := splitter.MakeBuilder().
		WithVersion(v).
		WithAttacher(attacher).
		WithTimer(rec)
	for _, h := range r.hooks {
		b = b.WithHook(h)
	}

	sp, err := b.Build()
	if err != nil {
		return nil, err
	}

	sess, err := sp.Attach(context.Background())
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	run := &session{version: v, fake: fake, sess: sess}
	res := &Result{Timer: rec}

	for i, t := range s.Ticks {
		if err := run.apply(t); err != nil {
			return nil, fmt.Errorf("scenario: tick %d: %w", i, err)
		}

		n := max(t.Repeat, 1)
		for range n {
			if t.Timer != "" {
				state, _ := timer.ParseState(t.Timer)
				rec.SetState(state)
			}

			state, _ := rec.State()
			cmds := sess.Step()
			res.Ticks = append(res.Ticks, TickResult{
				Index:    i,
				Timer:    state,
				Commands: cmds,
			})

			if t.Expect != nil && !sameCommands(t.Expect, cmds) {
				res.Mismatches = append(res.Mismatches,
					fmt.Sprintf("tick %d: want %v, got %v", i, t.Expect, cmds))
			}
		}

		fake.ClearFailures()

		if t.Exit {
			fake.Exit()
			res.Exited = true

			break
		}
	}

	return res, nil
}

func sameCommands(want []string, got []timer.Command) bool {
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.String()
	}

	return slices.Equal(want, names)
}

func (s *session) cell(name string) (game.CellSpec, error) {
	for _, c := range s.version.Cells {
		if c.Name == name {
			return c, nil
		}
	}

	return game.CellSpec{}, fmt.Errorf("unknown cell %q", name)
}

func (s *session) leaf(name string) (uint64, error) {
	path, ok := s.sess.Layout().Path(name)
	if !ok {
		return 0, fmt.Errorf("unknown cell %q", name)
	}

	return s.fake.Materialize(path, s.sess.Layout().PointerSize())
}

func (s *session) apply(t Tick) error {
	for name, value := range t.Write {
		c, err := s.cell(name)
		if err != nil {
			return err
		}

		data, err := encode(c, value)
		if err != nil {
			return err
		}

		addr, err := s.leaf(name)
		if err != nil {
			return err
		}

		if err := s.fake.Write(addr, data); err != nil {
			return err
		}
	}

	for _, name := range t.Fail {
		addr, err := s.leaf(name)
		if err != nil {
			return err
		}

		s.fake.FailReads(addr, true)
	}

	return nil
}

func encode(c game.CellSpec, value any) ([]byte, error) {
	if c.Kind.IsText() {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("cell %q takes text, got %v", c.Name, value)
		}

		return memory.EncodeCString(text, c.Width), nil
	}

	var n uint64
	switch v := value.(type) {
	case int:
		if v < 0 {
			return nil, fmt.Errorf("cell %q: negative value %d", c.Name, v)
		}
		n = uint64(v)
	case uint64:
		n = v
	case string:
		parsed, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", c.Name, err)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("cell %q takes a number, got %v", c.Name, value)
	}

	return memory.EncodeUint(c.Kind, n), nil
}
